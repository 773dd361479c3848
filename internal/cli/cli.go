package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/internal/log"
	internal_storage "github.com/migi-gluttony/SADSA-ORMVAT-sub000/internal/storage"
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/models"
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/service"
	"github.com/spf13/cobra"
)

// SetupCLI registers the dossier workflow commands on the root command.
// Every command expects the --db persistent flag.
func SetupCLI(rootCmd *cobra.Command) {
	createDossierCmd := &cobra.Command{
		Use:   "create-dossier",
		Short: "Register a new subsidy dossier",
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			reference, _ := cmd.Flags().GetString("reference")
			rubrique, _ := cmd.Flags().GetInt64("rubrique")
			sousRubrique, _ := cmd.Flags().GetInt64("sous-rubrique")
			antenne, _ := cmd.Flags().GetInt64("antenne")
			if reference == "" || rubrique == 0 || antenne == 0 {
				fmt.Println("Error: --reference, --rubrique and --antenne are required")
				os.Exit(1)
			}
			id, err := store.SaveDossier(models.Dossier{
				Reference:      reference,
				Status:         models.StatusDraft,
				RubriqueID:     rubrique,
				SousRubriqueID: sousRubrique,
				AntenneID:      antenne,
				CreatedAt:      time.Now(),
			})
			if err != nil {
				fail("create dossier", err)
			}
			fmt.Fprintf(os.Stdout, "Created dossier '%s' with ID %d\n", reference, id)
		},
	}
	createDossierCmd.Flags().String("reference", "", "Dossier reference (unique)")
	createDossierCmd.Flags().Int64("rubrique", 0, "Rubrique ID")
	createDossierCmd.Flags().Int64("sous-rubrique", 0, "Sous-rubrique ID")
	createDossierCmd.Flags().Int64("antenne", 0, "Antenne ID")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the workflow of a dossier at phase 1",
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			svc := service.NewWorkflowService(store, log.GetLogger())
			dossierID, actorID := actorParams(cmd)
			wi, err := svc.InitializeWorkflow(dossierID, actorID)
			if err != nil {
				fail("initialize workflow", err)
			}
			printInstance(wi)
		},
	}

	advanceCmd := &cobra.Command{
		Use:   "advance",
		Short: "Move a dossier along its forward edge",
		Run: transitionRun(func(svc *service.WorkflowService, dossierID, actorID int64, comment string) (models.WorkflowInstance, error) {
			return svc.Advance(dossierID, actorID, comment)
		}, "advance workflow"),
	}

	retreatCmd := &cobra.Command{
		Use:   "retreat",
		Short: "Send a dossier back along its backward edge",
		Run: transitionRun(func(svc *service.WorkflowService, dossierID, actorID int64, comment string) (models.WorkflowInstance, error) {
			return svc.Retreat(dossierID, actorID, comment)
		}, "retreat workflow"),
	}

	jumpCmd := &cobra.Command{
		Use:   "jump",
		Short: "Move a dossier directly to a phase",
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			svc := service.NewWorkflowService(store, log.GetLogger())
			dossierID, actorID := actorParams(cmd)
			phaseID, _ := cmd.Flags().GetInt64("phase")
			comment, _ := cmd.Flags().GetString("comment")
			if phaseID == 0 {
				fmt.Println("Error: --phase is required")
				os.Exit(1)
			}
			wi, err := svc.JumpTo(dossierID, phaseID, actorID, comment)
			if err != nil {
				fail("jump workflow", err)
			}
			printInstance(wi)
		},
	}
	jumpCmd.Flags().Int64("phase", 0, "Target phase ID (1-8)")
	jumpCmd.Flags().String("comment", "", "Transition comment")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current phase and SLA counters of a dossier",
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			svc := service.NewWorkflowService(store, log.GetLogger())
			dossierID := dossierParam(cmd)
			info, err := svc.CurrentPhaseInfo(dossierID)
			if err != nil {
				fail("get workflow status", err)
			}
			fmt.Fprintf(os.Stdout, "Dossier %d: phase %d (%s), at %s\n",
				dossierID, info.PhaseID, info.Designation, info.Location)
			fmt.Fprintf(os.Stdout, "Entered: %s, deadline: %s\n",
				info.EnteredAt.Format(time.RFC3339), info.DeadlineAt.Format(time.RFC3339))
			if info.IsOverdue {
				fmt.Fprintf(os.Stdout, "OVERDUE by %d working day(s)\n", info.OverdueWorkingDays)
			} else {
				fmt.Fprintf(os.Stdout, "%d working day(s) remaining\n", info.RemainingWorkingDays)
			}
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show the phase-occupancy ledger of a dossier",
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			svc := service.NewWorkflowService(store, log.GetLogger())
			dossierID := dossierParam(cmd)
			entries, err := svc.History(dossierID)
			if err != nil {
				fail("get workflow history", err)
			}
			if len(entries) == 0 {
				fmt.Fprintf(os.Stdout, "No history entries found.\n")
				return
			}
			fmt.Fprintf(os.Stdout, "History of dossier %d:\n", dossierID)
			for _, h := range entries {
				line := fmt.Sprintf("- Phase %d (%s), entered %s", h.PhaseID, h.Designation, h.EnteredAt.Format("2006-01-02"))
				if h.Open() {
					line += ", still open"
				} else {
					line += fmt.Sprintf(", exited %s after %d working day(s)", h.ExitedAt.Format("2006-01-02"), *h.DurationDays)
					if h.WasLate != nil && *h.WasLate {
						line += " (late)"
					}
				}
				fmt.Fprintln(os.Stdout, line)
			}
		},
	}

	addHolidayCmd := &cobra.Command{
		Use:   "add-holiday",
		Short: "Register a non-working day",
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			dateStr, _ := cmd.Flags().GetString("date")
			label, _ := cmd.Flags().GetString("label")
			fixed, _ := cmd.Flags().GetBool("fixed")
			date, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				fmt.Printf("Error: invalid --date, expected YYYY-MM-DD: %v\n", err)
				os.Exit(1)
			}
			id, err := store.SaveHoliday(models.Holiday{Date: date, Label: label, Fixed: fixed})
			if err != nil {
				fail("add holiday", err)
			}
			fmt.Fprintf(os.Stdout, "Added holiday '%s' on %s with ID %d\n", label, dateStr, id)
		},
	}
	addHolidayCmd.Flags().String("date", "", "Holiday date (YYYY-MM-DD)")
	addHolidayCmd.Flags().String("label", "", "Holiday label")
	addHolidayCmd.Flags().Bool("fixed", false, "Recurs every year on the same date")

	holidaysCmd := &cobra.Command{
		Use:   "holidays",
		Short: "List registered holidays for a year",
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			year, _ := cmd.Flags().GetInt("year")
			if year == 0 {
				year = time.Now().Year()
			}
			from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
			to := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
			holidays, err := store.ListHolidays(from, to)
			if err != nil {
				fail("list holidays", err)
			}
			if len(holidays) == 0 {
				fmt.Fprintf(os.Stdout, "No holidays found for %d.\n", year)
				return
			}
			for _, h := range holidays {
				fmt.Fprintf(os.Stdout, "- %s: %s\n", h.Date.Format("2006-01-02"), h.Label)
			}
		},
	}
	holidaysCmd.Flags().Int("year", 0, "Year to list (defaults to current)")

	for _, c := range []*cobra.Command{initCmd, advanceCmd, retreatCmd, jumpCmd, statusCmd, historyCmd} {
		c.Flags().Int64("dossier", 0, "Dossier ID")
		c.Flags().Int64("actor", 0, "Acting user ID")
	}
	advanceCmd.Flags().String("comment", "", "Transition comment")
	retreatCmd.Flags().String("comment", "", "Transition comment")

	rootCmd.AddCommand(createDossierCmd, initCmd, advanceCmd, retreatCmd, jumpCmd,
		statusCmd, historyCmd, addHolidayCmd, holidaysCmd)
}

func transitionRun(move func(svc *service.WorkflowService, dossierID, actorID int64, comment string) (models.WorkflowInstance, error), what string) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		store := initStore(cmd)
		defer store.Close()
		svc := service.NewWorkflowService(store, log.GetLogger())
		dossierID, actorID := actorParams(cmd)
		comment, _ := cmd.Flags().GetString("comment")
		wi, err := move(svc, dossierID, actorID, comment)
		if err != nil {
			fail(what, err)
		}
		printInstance(wi)
	}
}

func printInstance(wi models.WorkflowInstance) {
	name, _ := models.DisplayName(wi.PhaseID)
	fmt.Fprintf(os.Stdout, "Dossier %d is now at phase %d (%s), deadline %s\n",
		wi.DossierID, wi.PhaseID, name, wi.DeadlineAt.Format(time.RFC3339))
}

func dossierParam(cmd *cobra.Command) int64 {
	dossierID, _ := cmd.Flags().GetInt64("dossier")
	if dossierID == 0 {
		fmt.Println("Error: --dossier is required")
		os.Exit(1)
	}
	return dossierID
}

func actorParams(cmd *cobra.Command) (int64, int64) {
	dossierID := dossierParam(cmd)
	actorID, _ := cmd.Flags().GetInt64("actor")
	if actorID == 0 {
		fmt.Println("Error: --actor is required")
		os.Exit(1)
	}
	return dossierID, actorID
}

func fail(what string, err error) {
	log.GetLogger().Errorf("Failed to %s: %v", what, err)
	fmt.Fprintf(os.Stderr, "Error: failed to %s: %v\n", what, err)
	os.Exit(1)
}

func initStore(cmd *cobra.Command) *internal_storage.PostgresStore {
	dbConnStr, err := cmd.Flags().GetString("db")
	if err != nil {
		log.GetLogger().Errorf("Error retrieving db flag: %v", err)
		os.Exit(1)
	}
	log.GetLogger().Debugf("Connecting with db: %s", dbConnStr)
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	return store
}
