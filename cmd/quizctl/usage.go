package main

import (
	"context"
	"fmt"

	"docquiz/internal/config"
	"docquiz/internal/database"
	"docquiz/internal/domain"
	"docquiz/internal/repository"
	"docquiz/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "usage <user-id> <type>",
		Short:     "Consume one unit of a usage counter and print the decision",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(domain.ResourceAICalls), string(domain.ResourceDocumentsUploaded), string(domain.ResourceQuizzesCreated)},
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := domain.ParseResourceType(args[1])
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			db, err := database.NewPostgresDB(ctx, cfg.DB, cfg.GetDSN())
			if err != nil {
				return err
			}
			defer db.Close()

			gate := service.NewUsageGate(
				repository.NewUsageDatabaseAdapter(db),
				repository.NewPlanDatabaseAdapter(db),
				repository.NewTransactionManagerAdapter(db),
				nil,
				cfg.Usage.Plans,
				cfg.Usage.PlanCacheTTL,
				zap.NewNop(),
			)
			decision, err := gate.CheckAndConsume(ctx, args[0], resource)
			if decision != nil {
				printDecision(cmd, decision)
			}
			return err
		},
	}
}

func printDecision(cmd *cobra.Command, d *domain.UsageDecision) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Plan:      %s\n", d.Plan)
	fmt.Fprintf(out, "Resource:  %s\n", d.Resource)
	fmt.Fprintf(out, "Allowed:   %v\n", d.Allowed)
	fmt.Fprintf(out, "Used:      %d\n", d.Used)
	if r := d.Remaining(); r != nil {
		fmt.Fprintf(out, "Remaining: %d of %d\n", *r, d.Limit)
	} else {
		fmt.Fprintln(out, "Remaining: unlimited")
	}
	if d.Message != "" {
		fmt.Fprintf(out, "Message:   %s\n", d.Message)
	}
}
