package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	apperr "tv-recommender/backend/pkg/errors"

	"tv-recommender/backend/internal/identity"
	"tv-recommender/backend/pkg/logger"
)

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile identity-provider accounts into the graph",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "users",
				Usage:    "identity export CSV (id, username, email, join_date)",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "overwrite name and email on users that already exist",
			},
		},
		Action: runSync,
	}
}

func runSync(ctx context.Context, cmd *cli.Command) error {
	repo, err := connect(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	provider := &csvProvider{path: cmd.String("users")}
	synchronizer := identity.NewSynchronizer(repo)

	report, err := synchronizer.Resync(ctx, provider, cmd.Bool("force"))
	if err != nil {
		return err
	}

	logger.Get().Info("Identity sync finished",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", report.Errors),
	)
	fmt.Printf("created=%d updated=%d skipped=%d errors=%d\n",
		report.Created, report.Updated, report.Skipped, report.Errors)
	return nil
}

// csvProvider reads an identity export file. Rows with a non-numeric id
// are rejected so a bad export fails loudly instead of half-syncing.
type csvProvider struct {
	path string
}

func (p *csvProvider) ListUsers(ctx context.Context) ([]identity.UserRecord, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, apperr.NewBadRow(p.path, 1, err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"id", "username", "email"} {
		if _, ok := col[required]; !ok {
			return nil, apperr.NewBadRow(p.path, 1, fmt.Errorf("missing column %q", required))
		}
	}

	var users []identity.UserRecord
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, apperr.NewBadRow(p.path, line, err)
		}

		id, err := strconv.Atoi(row[col["id"]])
		if err != nil {
			return nil, apperr.NewBadRow(p.path, line, fmt.Errorf("bad id %q", row[col["id"]]))
		}

		rec := identity.UserRecord{
			ID:       id,
			Username: row[col["username"]],
			Email:    row[col["email"]],
		}
		if i, ok := col["join_date"]; ok && row[i] != "" {
			if parsed, err := time.Parse(time.RFC3339, row[i]); err == nil {
				rec.JoinDate = parsed
			}
		}
		users = append(users, rec)
	}
	return users, nil
}
