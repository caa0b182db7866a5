package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"taxi_buffer/internal/config"
	"taxi_buffer/internal/queue"
	"taxi_buffer/internal/sensors"
	"taxi_buffer/internal/storage"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Утилита оператора: разовые прогоны фоновых задач и заведение справочников.
func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

type commandContext struct {
	once   sync.Once
	cfg    *config.Config
	db     *gorm.DB
	queues *queue.Service
	err    error
}

func (c *commandContext) ensure() error {
	c.once.Do(func() {
		c.cfg, c.err = config.Load()
		if c.err != nil {
			return
		}
		c.db, c.err = storage.ConnectDatabase(c.cfg)
		if c.err != nil {
			return
		}
		if c.err = storage.Migrate(c.db); c.err != nil {
			return
		}
		// Уведомления из утилиты не доставляются: водитель увидит вызов при опросе статуса.
		c.queues = queue.NewService(c.db, nil, queue.WithMessageURL(c.cfg.DispatchBaseURL))
	})
	return c.err
}

func (c *commandContext) adapter() (*sensors.Adapter, error) {
	store, err := storage.NewFreeCountStore(c.cfg)
	if err != nil {
		return nil, err
	}
	return sensors.NewAdapter(c.db, store, c.queues), nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "taxi-buffer",
		Short:         "Операторская утилита очереди такси",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.ensure()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newPollCommand(ctx))
	rootCmd.AddCommand(newSweepCommand(ctx))
	rootCmd.AddCommand(newCleanupCommand(ctx))
	rootCmd.AddCommand(newQueueCommand(ctx))
	rootCmd.AddCommand(newSensorCommand(ctx))
	rootCmd.AddCommand(newOfficerCommand(ctx))
	rootCmd.AddCommand(newApiKeyCommand(ctx))

	return rootCmd
}
