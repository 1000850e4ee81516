package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/pamojavote/pamoja-go/models"
	"github.com/pamojavote/pamoja-go/utils"
)

func printJSON(w io.Writer, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printFooter(w io.Writer, shown, count int, next string) {
	fmt.Fprintf(w, "%d of %d", shown, count)
	if next != "" {
		fmt.Fprint(w, " (more available)")
	}
	fmt.Fprintln(w)
}

func printSquads(w io.Writer, page models.Page[models.Squad]) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tCOUNTY\tMEMBERS\tREGISTERED\tPUBLIC")
	for _, s := range page.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.0f%%\t%t\n", s.ID, s.Name, s.County, s.MemberCount, s.RegistrationProgress, s.IsPublic)
	}
	_ = tw.Flush()
	printFooter(w, len(page.Results), page.Count, page.Next)
}

func printLeaderboard(w io.Writer, page models.Page[models.LeaderboardEntry]) {
	tw := table(w)
	fmt.Fprintln(tw, "#\tSQUAD\tCOUNTY\tMEMBERS\tREGISTERED")
	for i, e := range page.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.0f%%\n", i+1, e.SquadName, e.County, e.MemberCount, e.RegistrationProgress)
	}
	_ = tw.Flush()
}

func printCenters(w io.Writer, page models.Page[models.Center]) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tCOUNTY\tCONSTITUENCY\tWARD")
	for _, c := range page.Results {
		ward := c.Ward
		if ward == "" {
			ward = c.Location
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.County, c.Constituency, ward)
	}
	_ = tw.Flush()
	printFooter(w, len(page.Results), page.Count, page.Next)
}

func printEvents(w io.Writer, page models.Page[models.Event]) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tWHEN\tMEETING POINT\tYES\tMAYBE")
	for _, e := range page.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", e.ID, utils.FormatEventTime(e.Datetime), e.MeetingPoint,
			e.RSVPCounts["yes"], e.RSVPCounts["maybe"])
	}
	_ = tw.Flush()
	printFooter(w, len(page.Results), page.Count, page.Next)
}
