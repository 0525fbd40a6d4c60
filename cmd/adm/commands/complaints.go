package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"campusvoice/internal/models"
	"campusvoice/internal/observability"
	"campusvoice/internal/serviceinterfaces"
	contextutils "campusvoice/internal/utils"
	"campusvoice/internal/views"

	"github.com/spf13/cobra"
)

// ComplaintServiceProvider connects to the database on first use and returns the complaint store
type ComplaintServiceProvider func(ctx context.Context) (serviceinterfaces.ComplaintService, error)

// ComplaintCommands returns the complaint moderation commands
func ComplaintCommands(provider ComplaintServiceProvider, logger *observability.Logger) *cobra.Command {
	complaintsCmd := &cobra.Command{
		Use:   "complaints",
		Short: "Complaint moderation commands",
		Long: `Complaint moderation commands for CampusVoice.

Available commands:
  list    - List complaints, newest first
  show    - Show one complaint by tracking code
  update  - Change the status or admin notes of a complaint
  stats   - Show complaint counts by status`,
	}

	complaintsCmd.AddCommand(listComplaintsCmd(provider, logger))
	complaintsCmd.AddCommand(showComplaintCmd(provider, logger))
	complaintsCmd.AddCommand(updateComplaintCmd(provider, logger))
	complaintsCmd.AddCommand(complaintStatsCmd(provider, logger))

	return complaintsCmd
}

func listComplaintsCmd(provider ComplaintServiceProvider, logger *observability.Logger) *cobra.Command {
	var filter models.ComplaintFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List complaints",
		Long:  `List complaints newest first. Use "all" or omit a flag to disable that filter.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			complaintService, err := provider(ctx)
			if err != nil {
				return err
			}

			complaints, err := complaintService.ListComplaints(ctx, filter)
			if err != nil {
				logger.Error(ctx, "Failed to list complaints", err, nil)
				return contextutils.WrapError(err, "failed to list complaints")
			}

			out := cmd.OutOrStdout()
			if len(complaints) == 0 {
				fmt.Fprintln(out, "No complaints found.")
				return nil
			}
			writeComplaintTable(out, complaints)
			logger.Info(ctx, "Listed complaints", map[string]interface{}{"total": len(complaints)})
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Status, "status", "", "Only show complaints with this status")
	cmd.Flags().StringVar(&filter.Category, "category", "", "Only show complaints in this category")
	return cmd
}

func showComplaintCmd(provider ComplaintServiceProvider, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "show [tracking-code]",
		Short: "Show a complaint by tracking code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			complaintService, err := provider(ctx)
			if err != nil {
				return err
			}

			complaint, err := complaintService.GetComplaintByTrackingID(ctx, args[0])
			if err != nil {
				if contextutils.GetErrorCode(err) == contextutils.ErrorCodeRecordNotFound {
					return contextutils.ErrorWithContextf("no complaint found with tracking code %q", args[0])
				}
				logger.Error(ctx, "Failed to fetch complaint", err, map[string]interface{}{"complaint_id": args[0]})
				return contextutils.WrapError(err, "failed to fetch complaint")
			}

			writeComplaintDetails(cmd.OutOrStdout(), complaint)
			return nil
		},
	}
}

func updateComplaintCmd(provider ComplaintServiceProvider, logger *observability.Logger) *cobra.Command {
	var status, notes string

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update the status or admin notes of a complaint",
		Long: `Update a complaint by its numeric id. Only the flags you pass are changed;
pass --notes "" to clear the admin notes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return contextutils.ErrorWithContextf("complaint id must be a positive integer, got %q", args[0])
			}

			var update models.ComplaintUpdate
			if cmd.Flags().Changed("status") {
				update.Status = &status
			}
			if cmd.Flags().Changed("notes") {
				update.AdminNotes = &notes
			}
			if update.Status == nil && update.AdminNotes == nil {
				return contextutils.ErrorWithContextf("nothing to update: pass --status and/or --notes")
			}

			ctx := cmd.Context()
			complaintService, err := provider(ctx)
			if err != nil {
				return err
			}

			if err := complaintService.UpdateComplaint(ctx, id, &update); err != nil {
				logger.Error(ctx, "Failed to update complaint", err, map[string]interface{}{"complaint.id": id})
				return contextutils.WrapError(err, "failed to update complaint")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Complaint %d updated.\n", id)
			logger.Info(ctx, "Complaint updated from CLI", map[string]interface{}{"complaint.id": id})
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "New status (pending, in-progress, resolved)")
	cmd.Flags().StringVar(&notes, "notes", "", "New admin notes")
	return cmd
}

func complaintStatsCmd(provider ComplaintServiceProvider, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show complaint counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			complaintService, err := provider(ctx)
			if err != nil {
				return err
			}

			stats, err := complaintService.GetStats(ctx)
			if err != nil {
				logger.Error(ctx, "Failed to fetch stats", err, nil)
				return contextutils.WrapError(err, "failed to fetch stats")
			}

			if stats == nil {
				stats = &models.AdminStats{}
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, tile := range views.StatTiles(*stats) {
				fmt.Fprintf(w, "%s\t%d\n", tile.Label, tile.Value)
			}
			return w.Flush()
		},
	}
}

func writeComplaintTable(out io.Writer, complaints []models.Complaint) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTRACKING CODE\tSTATUS\tCATEGORY\tLOCATION\tCREATED\tTITLE")
	for _, c := range complaints {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID,
			c.ComplaintID,
			views.StatusShortLabel(c.Status),
			views.CategoryLabel(c.Category),
			views.LocationLabel(c.Location),
			c.CreatedAt.UTC().Format("2006-01-02"),
			c.Title,
		)
	}
	_ = w.Flush()
}

func writeComplaintDetails(out io.Writer, c *models.Complaint) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%d\n", c.ID)
	fmt.Fprintf(w, "Tracking code:\t%s\n", c.ComplaintID)
	fmt.Fprintf(w, "Title:\t%s\n", c.Title)
	fmt.Fprintf(w, "Category:\t%s\n", views.CategoryLabel(c.Category))
	fmt.Fprintf(w, "Location:\t%s\n", views.LocationLabel(c.Location))
	fmt.Fprintf(w, "Status:\t%s\n", views.StatusLabel(c.Status))
	fmt.Fprintf(w, "Submitted:\t%s\n", views.FormatDateTime(c.CreatedAt, nil))
	fmt.Fprintf(w, "Updated:\t%s\n", views.FormatDateTime(c.UpdatedAt, nil))
	if c.AdminNotes.Valid && c.AdminNotes.String != "" {
		fmt.Fprintf(w, "Admin notes:\t%s\n", c.AdminNotes.String)
	}
	_ = w.Flush()
	fmt.Fprintf(out, "\n%s\n", c.Description)
}
