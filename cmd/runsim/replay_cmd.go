package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-fitquest/internal/auth"
	"backend-fitquest/internal/journal"
	"backend-fitquest/internal/logging"
	"backend-fitquest/internal/session"
	"backend-fitquest/internal/stats"
	"backend-fitquest/internal/tracking"
	"backend-fitquest/internal/workout"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

type replayFlags struct {
	apiURL    string
	token     string
	userID    string
	jwtSecret string
	redisAddr string
	logLevel  string
	verbose   bool
}

func newReplayCmd(journalPath *string) *cobra.Command {
	var f replayFlags

	cmd := &cobra.Command{
		Use:   "replay <route.yaml>",
		Short: "Replay a route file and print live and final metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			route, err := loadRoute(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			logger := logging.NewWithWriter(cmd.ErrOrStderr(), "runsim", f.logLevel)
			opts := replayOptions{UserID: f.userID, Verbose: f.verbose}

			token, err := f.resolveToken()
			if err != nil {
				return err
			}
			if token != "" {
				opts.Tokens = tracking.StaticToken(token)
			}

			finalizer := tracking.NewRunFinalizer(nil, nil, logger)
			if f.apiURL != "" {
				finalizer.Completer = workout.NewClient(f.apiURL, 10*time.Second)
			}
			if f.redisAddr != "" {
				rdb := redis.NewClient(&redis.Options{Addr: f.redisAddr})
				defer rdb.Close()
				finalizer.Stats = stats.NewAggregator(rdb)
			}
			opts.Finalizer = finalizer

			var j *journal.Journal
			if *journalPath != "" {
				j, err = journal.Open(*journalPath)
				if err != nil {
					return err
				}
				defer j.Close()
				opts.PointHook = func(sessionID string, p session.RoutePoint) {
					if err := j.Append(context.Background(), sessionID, p); err != nil {
						logger.Warn("journal append failed", "session_id", sessionID, "error", err)
					}
				}
			}

			out := cmd.OutOrStdout()
			st, err := replay(ctx, route, opts, out)
			if err != nil {
				return err
			}
			if st.Summary == nil {
				return errors.New("run did not complete")
			}
			if j != nil && st.Summary.Uploaded {
				if err := j.Clear(ctx, st.SessionID); err != nil {
					logger.Warn("journal clear failed", "session_id", st.SessionID, "error", err)
				}
			}
			_, err = fmt.Fprintln(out, renderSummary(route.Name, *st.Summary))
			return err
		},
	}

	cmd.Flags().StringVar(&f.apiURL, "api", "", "workout API base URL; empty keeps the run local")
	cmd.Flags().StringVar(&f.token, "token", "", "bearer token for the workout API")
	cmd.Flags().StringVar(&f.userID, "user", "runsim", "user id recorded with the run")
	cmd.Flags().StringVar(&f.jwtSecret, "jwt-secret", "", "issue a token for --user with this secret")
	cmd.Flags().StringVar(&f.redisAddr, "redis", "", "redis address for daily and weekly stats")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warn", "log level")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "print pause events")
	return cmd
}

func (f replayFlags) resolveToken() (string, error) {
	if f.token != "" {
		return f.token, nil
	}
	if f.jwtSecret == "" {
		return "", nil
	}
	if f.userID == "" {
		return "", errors.New("--jwt-secret needs --user")
	}
	return auth.NewService(f.jwtSecret).IssueAccessToken(f.userID, time.Hour)
}
