package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ascended/internal/analytics"
	"ascended/internal/cmdlog"
	"ascended/internal/config"
	"ascended/internal/jobs"
	"ascended/internal/model"
	"ascended/internal/service"
	"ascended/internal/theme"
)

// run opens the app, executes f under cmdlog and closes the app.
func run(cmd *cobra.Command, opts *options, name string, f func(ctx context.Context, a *app, w io.Writer) error) error {
	return cmdlog.Run(name, func() error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := openApp(ctx, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return f(ctx, a, cmd.OutOrStdout())
	})
}

func newInitCmd() *cobra.Command {
	var path string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("init", func() error {
				if _, err := os.Stat(path); err == nil && !force {
					return fmt.Errorf("%s exists; use --force to overwrite", path)
				}
				if err := config.Save(path, config.Default()); err != nil {
					return err
				}
				abs, _ := filepath.Abs(path)
				theme.PrintBanner(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), "Config written to:", abs)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&path, "path", defaultConfigPath, "path to write config")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newUserCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var premium bool
	var element string
	add := &cobra.Command{
		Use:   "add <username> <email>",
		Short: "Register a user with a full energy allotment and a new spirit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, "user_add", func(ctx context.Context, a *app, w io.Writer) error {
				u, s, err := a.engine.CreateUser(ctx, service.CreateUserInput{Username: args[0], Email: args[1], Premium: premium, Element: element})
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "user %s (@%s) energy=%d spirit=%s\n", u.ID, u.Username, u.Energy, s.Element)
				return nil
			})
		},
	}
	add.Flags().BoolVar(&premium, "premium", false, "start with the premium allotment")
	add.Flags().StringVar(&element, "element", "", "spirit element (fire, water, earth, air)")

	show := &cobra.Command{
		Use:   "show <user>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, "user_show", func(ctx context.Context, a *app, w io.Writer) error {
				u, err := a.engine.User(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s @%s <%s> aura=%d status=%s premium=%t\n", u.ID, u.Username, u.Email, u.Aura, u.Status, u.IsPremium)
				return nil
			})
		},
	}

	setPremium := &cobra.Command{
		Use:   "premium <user> <true|false>",
		Short: "Set premium status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := strconv.ParseBool(args[1])
			if err != nil {
				return err
			}
			return run(cmd, opts, "user_premium", func(ctx context.Context, a *app, w io.Writer) error {
				return a.engine.SetPremium(ctx, args[0], on)
			})
		},
	}

	setStatus := &cobra.Command{
		Use:   "status <user> <active|suspended|deactivated>",
		Short: "Change account status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, "user_status", func(ctx context.Context, a *app, w io.Writer) error {
				return a.engine.SetStatus(ctx, args[0], model.UserStatus(args[1]))
			})
		},
	}

	aura := &cobra.Command{
		Use:   "aura <user> <delta>",
		Short: "Moderation adjustment of aura",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			return run(cmd, opts, "user_aura", func(ctx context.Context, a *app, w io.Writer) error {
				return a.engine.AdjustAura(ctx, args[0], delta)
			})
		},
	}

	cmd.AddCommand(add, show, setPremium, setStatus, aura)
	return cmd
}

func newPostCmd(opts *options) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "post <author> <content...>",
		Short: "Publish content; its chakra is assigned by the classifier",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, "post", func(ctx context.Context, a *app, w io.Writer) error {
				p, s, err := a.engine.CreatePost(ctx, service.CreatePostInput{AuthorID: args[0], Type: typ, Content: strings.Join(args[1:], " ")})
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s %s %s xp=%d level=%d\n", p.ID, p.Type, theme.Paint(p.Chakra, string(p.Chakra)), s.Experience, s.Level)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "post", "post type (post, spark, vision)")
	return cmd
}

func newEngageCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "engage <user> <post-id> <upvote|downvote|like|energy>",
		Short: "Engage with a post",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := model.ParseEngagementType(args[2])
			if err != nil {
				return err
			}
			return run(cmd, opts, "engage", func(ctx context.Context, a *app, w io.Writer) error {
				res, err := a.engine.Engage(ctx, args[0], args[1], typ)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "frequency=%d (%+d) energy=%d xp=%d", analytics.DisplayFrequency(res.Post.Frequency), res.Delta, res.Balance, res.Spirit.Experience)
				if res.LeveledUp {
					fmt.Fprintf(w, " level up -> %d", res.Spirit.Level)
				}
				fmt.Fprintln(w)
				return nil
			})
		},
	}
}

func newRetractCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "retract <user> <post-id> <upvote|downvote|like|energy>",
		Short: "Withdraw an engagement",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := model.ParseEngagementType(args[2])
			if err != nil {
				return err
			}
			return run(cmd, opts, "retract", func(ctx context.Context, a *app, w io.Writer) error {
				p, err := a.engine.Retract(ctx, args[0], args[1], typ)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "frequency=%d\n", analytics.DisplayFrequency(p.Frequency))
				return nil
			})
		},
	}
}

func newSigilCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sigil <user>",
		Short: "Spend energy on a sigil",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, "sigil", func(ctx context.Context, a *app, w io.Writer) error {
				res, err := a.engine.GenerateSigil(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "sigil paid; energy=%d xp=%d level=%d\n", res.Balance, res.Spirit.Experience, res.Spirit.Level)
				return nil
			})
		},
	}
}

func newBalanceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <user>",
		Short: "Show spendable energy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, "balance", func(ctx context.Context, a *app, w io.Writer) error {
				v, err := a.engine.Balance(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "energy=%d/%d premium=%t next_reset=%s\n", v.Balance, v.Allotment, v.Premium, v.NextReset.Format(time.RFC3339))
				return nil
			})
		},
	}
}

func newSpiritCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "spirit <user>",
		Short: "Show a user's spirit companion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, "spirit", func(ctx context.Context, a *app, w io.Writer) error {
				v, err := a.engine.Spirit(ctx, args[0])
				if err != nil {
					return err
				}
				s := v.Spirit
				fmt.Fprintf(w, "%s %s level=%d tier=%d xp=%d (%d to next)\n", v.Symbol, s.Element, s.Level, v.Tier, s.Experience, v.ToNext)
				for _, e := range s.Evolution {
					mark := ""
					if e.LeveledUp {
						mark = fmt.Sprintf(" -> level %d", e.NewLevel)
					}
					fmt.Fprintf(w, "  %s %-16s +%d%s\n", e.Timestamp.Format(time.RFC3339), e.Action, e.ExperienceGain, mark)
				}
				return nil
			})
		},
	}
}

func newFeedCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "feed <chakra>",
		Short: "List a chakra's highest-frequency posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := model.ParseChakra(args[0])
			if err != nil {
				return err
			}
			return run(cmd, opts, "feed", func(ctx context.Context, a *app, w io.Writer) error {
				posts, err := a.engine.Feed(ctx, c, limit)
				if err != nil {
					return err
				}
				for _, p := range posts {
					fmt.Fprintf(w, "%5d  %s  %s\n", analytics.DisplayFrequency(p.Frequency), p.ID, theme.Paint(c, p.Content))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum posts")
	return cmd
}

func newMonitorCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor <post-id>",
		Short: "Show hourly engagement for a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, "monitor", func(ctx context.Context, a *app, w io.Writer) error {
				evs, err := a.engine.Activity(ctx, args[0])
				if err != nil {
					return err
				}
				b := analytics.HourlyEngagement(evs)
				for _, k := range analytics.SortedBucketKeys(b) {
					fmt.Fprintf(w, "%s ->", k.Format("2006-01-02 15:00"))
					for _, t := range model.EngagementTypes {
						if n := b[k][t]; n > 0 {
							fmt.Fprintf(w, " %s=%d", t, n)
						}
					}
					fmt.Fprintln(w)
				}
				return nil
			})
		},
	}
}

func newSyncCmd(opts *options) *cobra.Command {
	var loop bool
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Rebuild feed leaderboards in the cache from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, "sync", func(ctx context.Context, a *app, w io.Writer) error {
				if a.feed == nil {
					return errors.New("sync needs a reachable cache.redisAddr")
				}
				if !loop {
					return jobs.RunFeedSyncOnce(ctx, a.db, a.feed)
				}
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				err := jobs.RunFeedSyncLoop(ctx, a.db, a.feed, interval)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&loop, "loop", false, "keep syncing until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "loop interval")
	return cmd
}
