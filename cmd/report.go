package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"roadportal/internal/bootstrap"
	domainlisting "roadportal/internal/domain/listing"
	"roadportal/internal/errs"
	"roadportal/internal/usecase/accounts"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Damage report utilities",
}

var reportExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered report listing to an XLSX workbook",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		flags := cmd.Flags()
		search, _ := flags.GetString("search")
		status, _ := flags.GetString("status")
		severity, _ := flags.GetString("severity")
		sort, _ := flags.GetString("sort")
		dir, _ := flags.GetString("dir")

		tmp, err := os.CreateTemp(dir, "export-*.xlsx")
		if err != nil {
			return errs.Wrap(err, "create export file")
		}
		defer func() {
			_ = os.Remove(tmp.Name())
		}()

		name, err := svc.Listing.ExportReports(cmd.Context(), accounts.SystemActor, domainlisting.RawQuery{
			Search:   search,
			Status:   status,
			Severity: severity,
			Sort:     sort,
		}, tmp)
		if closeErr := tmp.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
		if err != nil {
			return errs.Wrap(err, "export reports")
		}

		target := filepath.Join(dir, name)
		if err := os.Rename(tmp.Name(), target); err != nil {
			return errs.Wrap(err, "move export file")
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), target)
		return err
	}),
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportExportCmd)

	reportExportCmd.Flags().String("search", "", "Match location, barangay or description")
	reportExportCmd.Flags().String("status", "", "Report status filter")
	reportExportCmd.Flags().String("severity", "", "Severity filter")
	reportExportCmd.Flags().String("sort", "", "newest|oldest|severity")
	reportExportCmd.Flags().String("dir", ".", "Output directory")
}
