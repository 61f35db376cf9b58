package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pageguard/internal/store"
	"pageguard/internal/types"
)

var (
	deleteID     string
	clearHistory bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, delete, or clear saved analysis sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		facade := store.NewFacade(cfg.Storage)
		defer facade.Close()

		ctx := cmd.Context()
		user, err := resolveUser(ctx, facade)
		if err != nil {
			return err
		}

		if deleteID != "" {
			if err := facade.DeleteHistory(ctx, deleteID); err != nil {
				return err
			}
			fmt.Printf("Deleted session %s\n", deleteID)
			return nil
		}
		if clearHistory {
			if err := facade.ClearHistory(ctx, user.ID); err != nil {
				return err
			}
			_ = facade.AddLog(ctx, user.ID, user.Name, types.ActionViewHistory, "Cleared all analysis history")
			fmt.Println("History cleared.")
			return nil
		}

		sessions, err := facade.History(ctx, user.ID)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Printf("No saved sessions for %s (mode: %s).\n", user.Email, facade.Mode())
			return nil
		}
		for _, s := range sessions {
			fmt.Printf("%s  %s  %q  %d result(s)\n",
				s.ID, s.Timestamp.Format("2006-01-02 15:04"), s.ProjectName, len(s.Results))
			for _, res := range s.Results {
				fmt.Printf("    %s [%s] score=%d, %d discrepancies\n",
					res.URL, res.Status, res.ComplianceScore, len(res.Discrepancies))
			}
		}
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the audit log, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		facade := store.NewFacade(cfg.Storage)
		defer facade.Close()

		entries, err := facade.Logs(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("Audit log is empty.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %-14s %s: %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.UserName, e.Details)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&deleteID, "delete", "", "delete one session by id")
	historyCmd.Flags().BoolVar(&clearHistory, "clear", false, "delete all of this user's sessions")
	historyCmd.MarkFlagsMutuallyExclusive("delete", "clear")
}
