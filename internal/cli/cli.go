package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/michaelberinski/genologics/internal/log"
	internal_storage "github.com/michaelberinski/genologics/internal/storage"
	"github.com/michaelberinski/genologics/pkg/epp"
	"github.com/michaelberinski/genologics/pkg/models"
	"github.com/michaelberinski/genologics/pkg/storage"
)

func SetupCLI(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("db", "", "Run registry connection string (optional)")

	runCmd := &cobra.Command{
		Use:   "run --log FILE -- program [args...]",
		Short: "Run a program with its output redirected into a run log",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			logFile, err := cmd.Flags().GetString("log")
			if err != nil || logFile == "" {
				log.GetLogger().Error("Missing required --log flag")
				os.Exit(1)
			}
			prepend, _ := cmd.Flags().GetBool("prepend")
			dbConnStr, err := cmd.Flags().GetString("db")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving db flag: %v", err)
				os.Exit(1)
			}
			if prepend {
				// The binary carries no LIMS transport; library callers
				// wire their client through epp.WithLims.
				log.GetLogger().Warn("No LIMS client configured, continuing without log prepending")
			}
			runProgram(logFile, dbConnStr, args)
		},
	}
	runCmd.Flags().String("log", "", "Run log file; its name doubles as the log's LIMS artifact id")
	runCmd.Flags().Bool("prepend", false, "Continue the previous run's log")

	attachCmd := &cobra.Command{
		Use:   "attach --id ID SRC",
		Short: "Copy a result file into the working directory for LIMS pickup",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := cmd.Flags().GetString("id")
			if err != nil || id == "" {
				log.GetLogger().Error("Missing required --id flag")
				os.Exit(1)
			}
			location, err := epp.AttachFile(args[0], models.Artifact{ID: id})
			if err != nil {
				log.GetLogger().Errorf("Failed to attach file: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to attach file: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Attached %s as %s\n", args[0], location)
		},
	}
	attachCmd.Flags().String("id", "", "LIMS id of the resource the file belongs to")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Run: func(cmd *cobra.Command, args []string) {
			dbConnStr, err := cmd.Flags().GetString("db")
			if err != nil || dbConnStr == "" {
				log.GetLogger().Error("The runs command requires the --db flag")
				os.Exit(1)
			}
			store := initStore(dbConnStr)
			defer store.Close()
			listRuns(store)
		},
	}

	rootCmd.AddCommand(runCmd, attachCmd, runsCmd)
}

// runProgram wires the child's streams into a run logger, records the run
// when a registry is configured and mirrors the child's exit status.
func runProgram(logFile, dbConnStr string, args []string) {
	var store storage.Store
	var runID string
	if dbConnStr != "" {
		store = initStore(dbConnStr)
		defer store.Close()
		runID = uuid.NewString()
		record := models.RunRecord{
			ID:        runID,
			Script:    strings.Join(args, " "),
			LogFile:   logFile,
			Status:    models.StartedRunStatus,
			StartedAt: time.Now(),
		}
		if err := store.SaveRun(record); err != nil {
			log.GetLogger().Errorf("Failed to record run: %v", err)
			os.Exit(1)
		}
	}

	logger := epp.NewLogger(logFile)
	if err := logger.Start(); err != nil {
		log.GetLogger().Errorf("Failed to start run logger: %v", err)
		finishRun(store, runID, models.FailedRunStatus, err.Error())
		os.Exit(1)
	}

	child := exec.Command(args[0], args[1:]...)
	child.Stdout = logger.Stdout()
	child.Stderr = logger.Stderr()
	runErr := child.Run()
	if err := logger.Stop(runErr); err != nil {
		finishRun(store, runID, models.FailedRunStatus, err.Error())
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		log.GetLogger().Errorf("Run failed: %v", err)
		os.Exit(1)
	}
	finishRun(store, runID, models.CompletedRunStatus, "")
}

func finishRun(store storage.Store, runID string, status models.RunStatus, errorMsg string) {
	if store == nil {
		return
	}
	if err := store.UpdateRunStatus(runID, status, errorMsg); err != nil {
		log.GetLogger().Errorf("Failed to update run status: %v", err)
	}
}

func listRuns(store storage.Store) {
	runs, err := store.ListRuns()
	if err != nil {
		log.GetLogger().Errorf("Failed to list runs: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to list runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Fprintf(os.Stdout, "No runs found.\n")
		return
	}
	fmt.Fprintf(os.Stdout, "Runs:\n")
	for _, r := range runs {
		finished := "-"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(os.Stdout, "- ID: %s, Script: %s, Status: %s, Started: %s, Finished: %s\n",
			r.ID, r.Script, r.Status, r.StartedAt.Format(time.RFC3339), finished)
	}
}

func initStore(dbConnStr string) *internal_storage.PostgresStore {
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	return store
}
