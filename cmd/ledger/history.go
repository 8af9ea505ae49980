package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"facecounter/internal/model"
	"facecounter/internal/repository"
)

var historyCmd = &cobra.Command{
	Use:   "history [date]",
	Short: "List the visitors recorded on a day",
	Long:  `Lists the first sightings recorded on the given day (YYYY-MM-DD), today when omitted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "List the days that have records",
	Args:  cobra.NoArgs,
	RunE:  runDates,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(datesCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	day := model.DateOf(time.Now())
	if len(args) == 1 {
		parsed, err := model.ParseDate(args[0])
		if err != nil {
			return err
		}
		day = parsed
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	return printHistory(cmd.OutOrStdout(), store.Attendance(), day)
}

func printHistory(w io.Writer, repo repository.AttendanceRepository, day model.Date) error {
	records, err := repo.GetByDate(day)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %d visitor(s)\n", day, len(records))
	for _, rec := range records {
		fmt.Fprintf(w, "  %s  %-10s %s\n", rec.Timestamp.Format("15:04:05"), rec.Label, rec.Session)
	}
	return nil
}

func runDates(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	return printDates(cmd.OutOrStdout(), store.Attendance())
}

func printDates(w io.Writer, repo repository.AttendanceRepository) error {
	days, err := repo.GetDates()
	if err != nil {
		return err
	}
	if len(days) == 0 {
		fmt.Fprintln(w, "No records")
		return nil
	}

	for _, day := range days {
		records, err := repo.GetByDate(day)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s  %d\n", day, len(records))
	}
	return nil
}
