package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/mail"
	"github.com/nhle/harmonicsheet/internal/model"
)

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "メールを確認します",
}

var (
	mailCached bool

	mailInboxCmd = &cobra.Command{
		Use:   "inbox",
		Short: "受信トレイを表示します",
		Args:  cobra.NoArgs,
		RunE:  runMailInbox,
	}

	mailReadCmd = &cobra.Command{
		Use:   "read <番号>",
		Short: "受信トレイの N 番目のメールを表示します",
		Args:  cobra.ExactArgs(1),
		RunE:  runMailRead,
	}
)

func init() {
	mailInboxCmd.Flags().BoolVar(&mailCached, "cached", false, "サーバーに接続せず保存済みのメールを表示")
	mailReadCmd.Flags().BoolVar(&mailCached, "cached", false, "サーバーに接続せず保存済みのメールを表示")
	mailCmd.AddCommand(mailInboxCmd)
	mailCmd.AddCommand(mailReadCmd)
}

func runMailInbox(cmd *cobra.Command, args []string) error {
	services, err := openServices()
	if err != nil {
		return err
	}
	defer services.Close()

	msgs, err := fetchInbox(cmd.Context(), services.Mail)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(msgs) == 0 {
		fmt.Fprintln(out, "メールはありません")
		return nil
	}
	for i, m := range msgs {
		mark := " "
		if !m.IsRead {
			mark = "●"
		}
		clip := ""
		if m.HasAttachment {
			clip = " 📎"
		}
		fmt.Fprintf(out, "%2d %s %s  %s  %s%s\n", i+1, mark, m.Date.Format("01/02 15:04"), m.From, m.Subject, clip)
	}
	return nil
}

func runMailRead(cmd *cobra.Command, args []string) error {
	var n int
	if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil || n < 1 {
		return apperr.Validation("番号は 1 以上の数字で指定してください")
	}

	services, err := openServices()
	if err != nil {
		return err
	}
	defer services.Close()

	msgs, err := fetchInbox(cmd.Context(), services.Mail)
	if err != nil {
		return err
	}
	msg, err := nthMessage(msgs, n)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "差出人: %s\n件名: %s\n日時: %s\n\n%s\n",
		msg.From, msg.Subject, msg.Date.Format("2006年1月2日 15:04"), msg.Body)
	for _, a := range msg.Attachments {
		fmt.Fprintf(out, "📎 %s (%s)\n", a.FileName, mail.FormatSize(a.Size))
	}
	return nil
}

// nthMessage returns the n-th inbox entry, counting from 1.
func nthMessage(msgs []model.MailMessage, n int) (model.MailMessage, error) {
	if n < 1 || n > len(msgs) {
		return model.MailMessage{}, apperr.NotFound(fmt.Sprintf("%d 番目のメールはありません", n), nil)
	}
	return msgs[n-1], nil
}

func fetchInbox(ctx context.Context, svc *mail.Service) ([]model.MailMessage, error) {
	if mailCached {
		return svc.Cached(ctx)
	}
	timeout := time.Duration(cfg.Mail.TimeoutSec) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return svc.Refresh(ctx)
}
