package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/shiftdesk/timeclock-backend-go/internal/config"
	appHTTP "github.com/shiftdesk/timeclock-backend-go/internal/handler/http"
	"github.com/shiftdesk/timeclock-backend-go/internal/pkg/cron"
	"github.com/shiftdesk/timeclock-backend-go/internal/pkg/database"
	"github.com/shiftdesk/timeclock-backend-go/internal/pkg/jwt"
	"github.com/shiftdesk/timeclock-backend-go/internal/pkg/sse"
	buntRepo "github.com/shiftdesk/timeclock-backend-go/internal/repository/buntdb"
	"github.com/shiftdesk/timeclock-backend-go/internal/repository/postgresql"
	attendanceService "github.com/shiftdesk/timeclock-backend-go/internal/service/attendance"
	worktimeService "github.com/shiftdesk/timeclock-backend-go/internal/service/worktime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	attendanceRepo := postgresql.NewAttendanceRepository(db)

	// Break intervals are a per-session scratchpad; they live in an
	// in-memory store and vanish on restart.
	breakLedger, err := buntRepo.NewBreakLedger()
	if err != nil {
		log.Fatal("Failed to initialize break ledger:", err)
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	hub := sse.NewHub()

	attendanceSvc := attendanceService.NewAttendanceService(
		attendanceRepo,
		breakLedger,
		hub,
		cfg.Attendance,
	)
	liveSvc := worktimeService.NewLiveService(attendanceSvc, hub, cfg.Attendance.ProjectorTick)

	loc, err := time.LoadLocation(cfg.Attendance.Timezone)
	if err != nil {
		log.Fatal("Failed to load timezone:", err)
	}

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(attendanceRepo, loc).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	leaveHandler := appHTTP.NewLeaveHandler(attendanceSvc)
	liveHandler := appHTTP.NewLiveHandler(liveSvc)

	router := appHTTP.NewRouter(
		cfg,
		jwtService,
		attendanceHandler,
		leaveHandler,
		liveHandler,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
