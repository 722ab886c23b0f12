package main

import (
	"context"
	"fmt"
	"io"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"

	"github.com/nhle/ghnotify/internal/alert"
	"github.com/nhle/ghnotify/internal/engine"
	"github.com/nhle/ghnotify/internal/store"
	appsync "github.com/nhle/ghnotify/internal/sync"
)

const historyLimit = 20

// runHeadless feeds batches straight into an engine and raises alerts,
// reporting readiness to systemd.
func runHeadless(ctx context.Context, poller *appsync.Poller, gate *alert.Gate, archive store.Store, log zerolog.Logger) error {
	e := engine.New()
	batches := make(chan appsync.Batch, 8)
	unsubscribe := poller.Subscribe(func(b appsync.Batch) {
		select {
		case batches <- b:
		case <-ctx.Done():
		}
	})
	defer unsubscribe()

	poller.Start(ctx)
	defer poller.Stop()

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn().Err(err).Msg("sd_notify failed")
	} else if ok {
		log.Debug().Msg("notified systemd")
	}
	log.Info().Msg("running headless")

	for {
		select {
		case <-ctx.Done():
			_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
			return nil
		case b := <-batches:
			res := e.OnBatch(b.Notifications)
			gate.Handle(ctx, res)
			if archive != nil {
				if err := archiveBatch(ctx, archive, b, res.Added); err != nil {
					log.Error().Err(err).Msg("archiving batch failed")
				}
			}
			log.Info().
				Int("added", res.Added).
				Int("dirty", res.Snapshot.DirtyCount()).
				Msg("batch processed")
		}
	}
}

func archiveBatch(ctx context.Context, archive store.Store, b appsync.Batch, added int) error {
	if err := archive.SaveNotifications(ctx, b.Notifications); err != nil {
		return err
	}
	_, err := archive.RecordBatch(ctx, store.BatchRecord{
		ReceivedAt: b.FetchedAt,
		Size:       len(b.Notifications),
		Added:      added,
	})
	return err
}

// runOnce performs a single fetch and prints the grouped result.
func runOnce(ctx context.Context, poller *appsync.Poller, archive store.Store, w io.Writer) error {
	e := engine.New()
	batch, err := poller.PollOnce(ctx)
	if err != nil {
		return err
	}
	res := e.OnBatch(batch.Notifications)
	if err := printSummary(w, res.Snapshot); err != nil {
		return err
	}
	if archive == nil {
		return nil
	}

	if len(batch.Notifications) > 0 {
		if err := archiveBatch(ctx, archive, batch, res.Added); err != nil {
			return err
		}
	}
	unread, err := archive.UnreadCount(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "\nArchive: %d unread\n", unread)
	return err
}

func printSummary(w io.Writer, snap engine.Snapshot) error {
	for _, c := range engine.Tabs {
		v := snap.View(c)
		if _, err := fmt.Fprintf(w, "%s (%d)\n", c.Label(), v.Count()); err != nil {
			return err
		}
		groups := v.Groups.Groups()
		if len(groups) == 0 {
			fmt.Fprintln(w, "  No notifications in this category.")
			continue
		}
		for _, g := range groups {
			rep := g.Representative()
			count := ""
			if g.Count > 1 {
				count = fmt.Sprintf(" x%d", g.Count)
			}
			fmt.Fprintf(w, "  %s%s  [%s]\n    %s\n", g.Title, count, rep.RepositoryFullName(), engine.DeepLink(c, rep))
		}
	}
	return nil
}

// printHistory lists what the archive holds: unread threads, newest first,
// and the most recent batches.
func printHistory(ctx context.Context, w io.Writer, archive store.Store, limit int) error {
	unread, err := archive.UnreadCount(ctx)
	if err != nil {
		return err
	}
	recs, err := archive.GetNotifications(ctx, store.NotificationFilter{UnreadOnly: true, Limit: limit})
	if err != nil {
		return err
	}
	batches, err := archive.RecentBatches(ctx, limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Unread (%d)\n", unread)
	if len(recs) == 0 {
		fmt.Fprintln(w, "  Nothing unread.")
	}
	for _, r := range recs {
		c := engine.Categorize(r.Reason)
		fmt.Fprintf(w, "  %s  %-16s %s  [%s]\n    %s\n",
			r.UpdatedAt.Local().Format("2006-01-02 15:04"),
			r.Reason,
			r.SubjectTitle(),
			r.RepositoryFullName(),
			engine.DeepLink(c, r.Notification),
		)
	}

	fmt.Fprintln(w, "\nRecent batches")
	if len(batches) == 0 {
		fmt.Fprintln(w, "  None recorded.")
	}
	for _, b := range batches {
		fmt.Fprintf(w, "  %s  %d fetched, %d new\n", b.ReceivedAt.Local().Format("2006-01-02 15:04:05"), b.Size, b.Added)
	}
	return nil
}
