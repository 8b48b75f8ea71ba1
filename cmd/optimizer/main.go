package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/azsu-rae/asura-edt/internal/repository"
	"github.com/azsu-rae/asura-edt/internal/service"
	"github.com/azsu-rae/asura-edt/pkg/config"
	"github.com/azsu-rae/asura-edt/pkg/database"
	appErrors "github.com/azsu-rae/asura-edt/pkg/errors"
	"github.com/azsu-rae/asura-edt/pkg/logger"
	"github.com/azsu-rae/asura-edt/pkg/metrics"
)

var version = "0.1.0"

const summaryPrecision = 10 * time.Millisecond

func main() {
	root := &cobra.Command{
		Use:           "asura-edt",
		Short:         "University exam schedule optimizer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(optimizeCommand())
	root.AddCommand(versionCommand())

	if err := root.Execute(); err != nil {
		os.Exit(appErrors.FromError(err).ExitCode)
	}
}

func optimizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "optimize",
		Short: "Compute and persist a complete exam timetable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				log.Printf("failed to load config: %v", err)
				return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.ExitCode, "failed to load config")
			}
			if err := cfg.Validate(); err != nil {
				log.Printf("invalid config: %v", err)
				return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.ExitCode, "invalid config")
			}

			logr, err := logger.New(cfg)
			if err != nil {
				log.Printf("failed to init logger: %v", err)
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.ExitCode, "failed to init logger")
			}
			defer logr.Sync() //nolint:errcheck

			db, err := database.NewPostgres(cfg.Database)
			if err != nil {
				logr.Error("failed to connect to database", zap.Error(err))
				return appErrors.Wrap(err, appErrors.ErrDataUnavailable.Code, appErrors.ErrDataUnavailable.ExitCode, "failed to connect to database")
			}
			defer db.Close()

			m := metrics.New()
			svc := service.NewOptimizeService(
				repository.NewReferenceRepository(db),
				repository.NewScheduleRepository(db),
				cfg.Exam,
				logr,
				m,
			)

			summary, err := svc.Run(cmd.Context())
			if err != nil {
				logr.Error("optimization failed", zap.Error(err))
				return err
			}

			if pushErr := m.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName); pushErr != nil {
				logr.Warn("failed to push metrics", zap.Error(pushErr))
			}

			fmt.Printf("elapsed=%s num_exams=%d num_days=%d num_slots=%d num_surveillances=%d student_violations=%d\n",
				summary.Elapsed.Round(summaryPrecision),
				summary.NumExams,
				summary.NumDays,
				summary.NumSlots,
				summary.NumSurveillances,
				summary.StudentViolations,
			)
			return nil
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the optimizer version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
