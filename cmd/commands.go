package main

import (
	"fmt"
	"time"

	"taxi_buffer/internal/auth"
	"taxi_buffer/internal/models"
	"taxi_buffer/internal/sensors"
	"taxi_buffer/internal/tasks"

	"github.com/spf13/cobra"
)

func newPollCommand(ctx *commandContext) *cobra.Command {
	var opts sensors.PollOptions
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Пересчитать свободные места по датчикам и вызвать водителей",
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := ctx.adapter()
			if err != nil {
				return err
			}
			reports, err := adapter.Poll(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Нет активных датчиков для заданных фильтров.")
			}
			for _, r := range reports {
				prev := "нет"
				if r.Previous != nil {
					prev = fmt.Sprint(*r.Previous)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Зона %d: датчиков=%d свободно=%d было=%s очередей=%d вызвано=%d\n",
					r.ZoneID, r.Sensors, r.Free, prev, r.Queues, r.Notified)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Только посчитать и вывести, без вызовов и обновления кэша")
	cmd.Flags().UintVar(&opts.ZoneID, "pickup-zone-id", 0, "Ограничить одной зоной посадки")
	cmd.Flags().StringSliceVar(&opts.Serials, "serials", nil, "Ограничить списком серийных номеров датчиков")
	return cmd
}

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Закрыть просроченные предложения и передать места следующим",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := tasks.NewSweeper(ctx.queues).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Просмотрено %d, истекло %d, передано %d, ошибок %d\n",
				report.Scanned, report.Expired, report.Reoffered, report.Failed)
			return nil
		},
	}
}

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var retention time.Duration
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Удалить завершённые записи старше срока хранения",
		RunE: func(cmd *cobra.Command, args []string) error {
			if retention <= 0 {
				retention = ctx.cfg.TerminalRetention
			}
			tasks.CleanTerminalEntries(cmd.Context(), ctx.queues, retention)
			return nil
		},
	}
	cmd.Flags().DurationVar(&retention, "retention", 0, "Срок хранения (по умолчанию TERMINAL_RETENTION_HOURS)")
	return cmd
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Управление очередями",
	}

	var buffer, pickup string
	var timeout, sensorsTotal int
	create := &cobra.Command{
		Use:   "create",
		Short: "Создать очередь из буферной зоны в зону посадки",
		RunE: func(cmd *cobra.Command, args []string) error {
			if buffer == "" || pickup == "" {
				return fmt.Errorf("нужны --buffer и --pickup")
			}
			if timeout <= 0 {
				timeout = ctx.cfg.DefaultTimeoutMinutes
			}
			db := ctx.db.WithContext(cmd.Context())

			bz := models.BufferZone{Name: buffer, Active: true}
			if err := db.Where(models.BufferZone{Name: buffer}).FirstOrCreate(&bz).Error; err != nil {
				return err
			}
			pz := models.PickupZone{Name: pickup, TotalSensors: sensorsTotal, Active: true}
			if err := db.Where(models.PickupZone{Name: pickup}).FirstOrCreate(&pz).Error; err != nil {
				return err
			}
			q := models.TaxiQueue{
				BufferZoneID:               bz.ID,
				PickupZoneID:               pz.ID,
				NotificationTimeoutMinutes: timeout,
				Active:                     true,
			}
			if err := db.Create(&q).Error; err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Очередь %d создана: %s (зона посадки %d)\n", q.ID, q.Name, pz.ID)
			return nil
		},
	}
	create.Flags().StringVar(&buffer, "buffer", "", "Название буферной зоны")
	create.Flags().StringVar(&pickup, "pickup", "", "Название зоны посадки")
	create.Flags().IntVar(&timeout, "timeout", 0, "Минут на ответ водителя (по умолчанию DEFAULT_TIMEOUT_MINUTES)")
	create.Flags().IntVar(&sensorsTotal, "sensors", 0, "Число мест в зоне посадки")

	list := &cobra.Command{
		Use:   "list",
		Short: "Показать активные очереди",
		RunE: func(cmd *cobra.Command, args []string) error {
			queues, err := ctx.queues.ActiveQueues(cmd.Context())
			if err != nil {
				return err
			}
			for _, q := range queues {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\tожидают=%d\tтаймаут=%dм\n", q.ID, q.Name, q.WaitingCount, q.TimeoutMinutes)
			}
			return nil
		},
	}

	queueCmd.AddCommand(create, list)
	return queueCmd
}

func newSensorCommand(ctx *commandContext) *cobra.Command {
	sensorCmd := &cobra.Command{
		Use:   "sensor",
		Short: "Управление датчиками",
	}

	var zoneID uint
	var serial string
	add := &cobra.Command{
		Use:   "add",
		Short: "Зарегистрировать датчик в зоне посадки",
		RunE: func(cmd *cobra.Command, args []string) error {
			if zoneID == 0 || serial == "" {
				return fmt.Errorf("нужны --pickup-zone-id и --serial")
			}
			s := models.Sensor{SerialNumber: serial, PickupZoneID: zoneID, Active: true}
			if err := ctx.db.WithContext(cmd.Context()).Create(&s).Error; err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Датчик %s добавлен в зону %d\n", serial, zoneID)
			return nil
		},
	}
	add.Flags().UintVar(&zoneID, "pickup-zone-id", 0, "Зона посадки")
	add.Flags().StringVar(&serial, "serial", "", "Серийный номер")

	sensorCmd.AddCommand(add)
	return sensorCmd
}

func newOfficerCommand(ctx *commandContext) *cobra.Command {
	officerCmd := &cobra.Command{
		Use:   "officer",
		Short: "Учётные записи офицеров",
	}

	var username, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Создать офицера",
		RunE: func(cmd *cobra.Command, args []string) error {
			officer, err := auth.CreateOfficer(cmd.Context(), ctx.db, username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Офицер %s создан (id %d)\n", officer.Username, officer.ID)
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "Имя пользователя")
	create.Flags().StringVar(&password, "password", "", "Пароль")

	officerCmd.AddCommand(create)
	return officerCmd
}

func newApiKeyCommand(ctx *commandContext) *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "apikey",
		Short: "Ключи интеграций датчиков",
	}

	var label, key, description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Создать ключ интеграции",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey, err := sensors.NewService(ctx.db, nil).CreateApiKey(cmd.Context(), label, key, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ключ %s создан\n", apiKey.Label)
			return nil
		},
	}
	create.Flags().StringVar(&label, "label", "", "Метка интеграции")
	create.Flags().StringVar(&key, "key", "", "Секретный ключ")
	create.Flags().StringVar(&description, "description", "", "Описание")

	keyCmd.AddCommand(create)
	return keyCmd
}
