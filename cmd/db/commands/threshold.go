package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/robalyx/aegis/internal/database/types"
	"github.com/robalyx/aegis/internal/database/types/enum"
	"github.com/robalyx/aegis/pkg/utils"
)

var (
	ErrPermanentDuration    = errors.New("temp ban duration cannot be permanent")
	ErrDurationNotSupported = errors.New("duration only applies to the tempban action")
)

// ThresholdCommands returns all escalation threshold commands.
func ThresholdCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "thresholds",
			Usage:  "List all escalation thresholds",
			Action: handleListThresholds(deps),
		},
		{
			Name:      "set-threshold",
			Usage:     "Create or replace the escalation at a warning count",
			ArgsUsage: "COUNT ACTION",
			Description: `Configure the automatic action fired when a player's active warning
count lands exactly on COUNT. ACTION is one of: kick, tempban, permban.

Examples:
  db set-threshold 3 kick
  db set-threshold 5 tempban --duration 24h
  db set-threshold 7 permban --message "Repeated violations"`,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "duration",
					Usage:   "Temp ban length (e.g. 12h, 3d, 1w), tempban only",
					Aliases: []string{"d"},
				},
				&cli.StringFlag{
					Name:    "message",
					Usage:   "Reason recorded on the automatic action",
					Aliases: []string{"m"},
				},
			},
			Action: handleSetThreshold(deps),
		},
		{
			Name:      "enable-threshold",
			Usage:     "Enable the escalation at a warning count",
			ArgsUsage: "COUNT",
			Action:    handleToggleThreshold(deps, true),
		},
		{
			Name:      "disable-threshold",
			Usage:     "Disable the escalation at a warning count without removing it",
			ArgsUsage: "COUNT",
			Action:    handleToggleThreshold(deps, false),
		},
		{
			Name:      "remove-threshold",
			Usage:     "Remove the escalation at a warning count",
			ArgsUsage: "COUNT",
			Action:    handleRemoveThreshold(deps),
		},
	}
}

// handleListThresholds handles the 'thresholds' command.
func handleListThresholds(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		thresholds, err := deps.DB.Model().Threshold().GetAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to get thresholds: %w", err)
		}

		if len(thresholds) == 0 {
			fmt.Println("No escalation thresholds configured.")
			return nil
		}

		fmt.Printf("%-7s %-8s %-10s %-8s %s\n", "COUNT", "ACTION", "DURATION", "ENABLED", "MESSAGE")

		for _, t := range thresholds {
			duration := "-"
			if t.Action == enum.ThresholdActionTempBan {
				duration = utils.FormatDuration(t.TempBanDuration())
			}

			message := "-"
			if t.Message != nil && *t.Message != "" {
				message = *t.Message
			}

			enabled := "yes"
			if !t.Enabled {
				enabled = "no"
			}

			fmt.Printf("%-7d %-8s %-10s %-8s %s\n", t.WarningCount, t.Action.String(), duration, enabled, message)
		}

		return nil
	}
}

// handleSetThreshold handles the 'set-threshold' command.
func handleSetThreshold(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() < 1 {
			return ErrCountRequired
		}

		if c.Args().Len() < 2 {
			return ErrActionRequired
		}

		count, err := parseWarningCount(c.Args().First())
		if err != nil {
			return err
		}

		action, err := enum.ThresholdActionString(c.Args().Get(1))
		if err != nil {
			return fmt.Errorf("invalid action %q: %w", c.Args().Get(1), err)
		}

		var duration *time.Duration

		if durationStr := c.String("duration"); durationStr != "" {
			if action != enum.ThresholdActionTempBan {
				return ErrDurationNotSupported
			}

			parsed, permanent, err := utils.ParseDuration(durationStr)
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", durationStr, err)
			}

			if permanent {
				return ErrPermanentDuration
			}

			duration = &parsed
		}

		var message *string
		if messageStr := c.String("message"); messageStr != "" {
			message = &messageStr
		}

		now := time.Now()
		threshold := &types.EscalationThreshold{
			WarningCount: count,
			Action:       action,
			Duration:     duration,
			Message:      message,
			Enabled:      true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := deps.DB.Model().Threshold().Upsert(ctx, threshold); err != nil {
			return fmt.Errorf("failed to set threshold: %w", err)
		}

		deps.Logger.Info("Threshold configured",
			zap.Int("warningCount", count),
			zap.String("action", action.String()))

		return nil
	}
}

// handleToggleThreshold handles the 'enable-threshold' and
// 'disable-threshold' commands.
func handleToggleThreshold(deps *CLIDependencies, enabled bool) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 1 {
			return ErrCountRequired
		}

		count, err := parseWarningCount(c.Args().First())
		if err != nil {
			return err
		}

		if err := deps.DB.Model().Threshold().SetEnabled(ctx, count, enabled); err != nil {
			return fmt.Errorf("failed to toggle threshold: %w", err)
		}

		deps.Logger.Info("Threshold toggled",
			zap.Int("warningCount", count),
			zap.Bool("enabled", enabled))

		return nil
	}
}

// handleRemoveThreshold handles the 'remove-threshold' command.
func handleRemoveThreshold(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 1 {
			return ErrCountRequired
		}

		count, err := parseWarningCount(c.Args().First())
		if err != nil {
			return err
		}

		if err := deps.DB.Model().Threshold().Delete(ctx, count); err != nil {
			return fmt.Errorf("failed to remove threshold: %w", err)
		}

		deps.Logger.Info("Threshold removed", zap.Int("warningCount", count))

		return nil
	}
}

// parseWarningCount parses a COUNT argument.
func parseWarningCount(arg string) (int, error) {
	count, err := strconv.Atoi(arg)
	if err != nil || count <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCount, arg)
	}

	return count, nil
}
