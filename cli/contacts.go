// ABOUTME: Contact CLI commands
// ABOUTME: Search stored contacts and show one contact's payments and timeline
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/leadledger/config"
	"github.com/harperreed/leadledger/db"
	"github.com/harperreed/leadledger/models"
)

// ContactsCommand lists contacts matching --query.
func ContactsCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("contacts", flag.ExitOnError)
	query := fs.String("query", "", "Search by email or name")
	limit := fs.Int("limit", 50, "Max results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, err := app.DB()
	if err != nil {
		return err
	}
	contacts, err := db.FindContacts(ctx, database, *query, *limit)
	if err != nil {
		return err
	}

	if len(contacts) == 0 {
		app.printf("No contacts found.\n")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "EMAIL\tNAME\tSTAGE\tSOURCE\tPURCHASE\tFLAGS")
	_, _ = fmt.Fprintln(w, "-----\t----\t-----\t------\t--------\t-----")
	for _, c := range contacts {
		purchase := "-"
		if c.PurchaseAmount.Valid {
			purchase = "$" + c.PurchaseAmount.Decimal.StringFixed(2)
		}
		flags := ""
		if c.IsSuspicious {
			flags = "suspicious"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Email, orDash(fullName(c)), orDash(models.Deref(c.ReachedStage)), c.Source, purchase, flags)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	app.printf("\nShowing %d contacts\n", len(contacts))
	return nil
}

// ShowContactCommand prints a contact with its payments and timeline.
func ShowContactCommand(ctx context.Context, app *App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: show requires an email", config.ErrMissingInput)
	}
	email := strings.ToLower(strings.TrimSpace(args[0]))

	database, err := app.DB()
	if err != nil {
		return err
	}
	c, err := db.GetContact(ctx, database, email)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("contact not found: %s", email)
	}

	app.printf("%s\n", c.Email)
	if name := fullName(c); name != "" {
		app.printf("  Name:    %s\n", name)
	}
	if c.Phone != nil {
		app.printf("  Phone:   %s\n", *c.Phone)
	}
	app.printf("  Source:  %s\n", c.Source)
	app.printf("  Stage:   %s\n", orDash(models.Deref(c.ReachedStage)))
	if c.AdType != nil {
		app.printf("  Traffic: %s\n", *c.AdType)
	}
	if c.DataQualityNotes != nil {
		app.printf("  ⚠ %s\n", *c.DataQualityNotes)
	}

	payments, err := db.ListPayments(ctx, database, email)
	if err != nil {
		return err
	}
	if len(payments) > 0 {
		app.printf("\nPayments:\n")
		for _, p := range payments {
			app.printf("  %s  %10s %s  %-17s %s\n",
				p.PaymentDate.Format("2006-01-02"), p.Amount.StringFixed(2), p.Currency, p.PaymentType, p.Source)
		}
	}

	events, err := db.ListTimeline(ctx, database, email)
	if err != nil {
		return err
	}
	if len(events) > 0 {
		app.printf("\nTimeline:\n")
		for _, e := range events {
			app.printf("  %s  %-16s %s\n", e.EventDate.Format("2006-01-02"), e.EventType, e.Source)
		}
	}
	return nil
}

func fullName(c *models.Contact) string {
	return strings.TrimSpace(models.Deref(c.FirstName) + " " + models.Deref(c.LastName))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
