package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/ndemidov/cargotrail/internal/client/alerts"
	"github.com/ndemidov/cargotrail/internal/client/models"
)

// List prints all shipments in a table.
func (a *App) List(ctx context.Context) error {
	shipments, err := a.shipments.List(ctx)
	if err != nil {
		a.reportError(err)
		return err
	}

	if len(shipments) == 0 {
		fmt.Fprintln(a.out, "No shipments yet.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tROUTE")
	for _, s := range shipments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s -> %s\n", s.ID, s.Name, s.Status, s.Origin, s.Destination)
	}
	return w.Flush()
}

// Show prints a single shipment. The id comes from the command arguments.
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: show <id>")
		return nil
	}

	s, err := a.shipments.Get(ctx, args[0])
	if err != nil {
		a.reportError(err)
		return err
	}

	fmt.Fprintf(a.out, "Shipment %s\n", s.ID)
	fmt.Fprintf(a.out, "  Name:        %s\n", s.Name)
	fmt.Fprintf(a.out, "  Status:      %s\n", s.Status)
	fmt.Fprintf(a.out, "  Origin:      %s\n", s.Origin)
	fmt.Fprintf(a.out, "  Destination: %s\n", s.Destination)
	if s.CustodianID != "" {
		fmt.Fprintf(a.out, "  Custodian:   %s\n", s.CustodianID)
	}
	return nil
}

// Create prompts for the shipment fields and registers it on the server.
func (a *App) Create(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter shipment name", a.out)
	if err != nil {
		return err
	}
	origin, err := getSimpleText(a.reader, "Enter origin", a.out)
	if err != nil {
		return err
	}
	destination, err := getSimpleText(a.reader, "Enter destination", a.out)
	if err != nil {
		return err
	}

	created, err := a.shipments.Create(ctx, &models.Shipment{
		Name:        name,
		Origin:      origin,
		Destination: destination,
	})
	if err != nil {
		a.reportError(err)
		return err
	}

	a.notifier.Notify(alerts.KindSuccess, fmt.Sprintf("Shipment %s created.", created.ID))
	return nil
}

// Sync asks the backend to re-pull tracker data for a shipment.
func (a *App) Sync(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: sync <id>")
		return nil
	}

	if err := a.shipments.Sync(ctx, args[0]); err != nil {
		a.reportError(err)
		return err
	}

	a.notifier.Notify(alerts.KindSuccess, fmt.Sprintf("Shipment %s synced.", args[0]))
	return nil
}

// Upload sends a manifest report file to the server.
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: upload <file>")
		return nil
	}

	f, err := os.Open(args[0])
	if err != nil {
		a.notifier.Notify(alerts.KindError, fmt.Sprintf("Cannot open %s: %v", args[0], err))
		return err
	}
	defer f.Close()

	if err := a.shipments.UploadManifest(ctx, filepath.Base(args[0]), f); err != nil {
		a.reportError(err)
		return err
	}

	a.notifier.Notify(alerts.KindSuccess, fmt.Sprintf("Report %s uploaded.", filepath.Base(args[0])))
	return nil
}
