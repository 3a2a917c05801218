package cmd

import (
	"errors"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/marketplace/internal/notify"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Consume marketplace events and send e-mail notifications",
	RunE:  runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}

func runNotify(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	if len(cfg.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required for the notify worker")
	}

	var n notify.Notifier = notify.LogNotifier{}
	if cfg.SMTPHost != "" {
		n = &notify.SMTPNotifier{
			Host:     cfg.SMTPHost,
			Port:     strconv.Itoa(cfg.SMTPPort),
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}
	} else {
		a.log.Warn("smtp_disabled", "reason", "SMTP_HOST is empty, mail is logged only")
	}

	consumer := notify.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, n, a.repo, cfg.AdminEmail)
	defer consumer.Close()

	return consumer.Run(logging.IntoContext(ctx, a.log.With("topic", cfg.KafkaTopic, "group_id", cfg.KafkaGroupID)))
}
