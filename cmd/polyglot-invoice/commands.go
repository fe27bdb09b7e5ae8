package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/metrics"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/server"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/transcription"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			reg := metrics.NewRegistry()
			svc, err := newService(cfg, reg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, cfg, svc, reg)
		},
	}
}

func extractCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:     "extract [transcript]",
		Short:   "Extract a validated transaction from a transcript",
		Example: `  polyglot-invoice extract --lang th "ขายผัดไทย 2 จาน จานละ 50 บาท"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			language, err := model.ParseLanguage(lang)
			if err != nil {
				return err
			}
			cfg, err := setup()
			if err != nil {
				return err
			}
			svc, err := newService(cfg, nil)
			if err != nil {
				return err
			}

			tx, err := svc.ProcessVoiceTransaction(cmd.Context(), args[0], language)
			if err != nil {
				return err
			}
			return printJSON(cmd, tx)
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "en", "transcript language (en, id, th, vi, tl)")
	return cmd
}

func invoiceCmd() *cobra.Command {
	var (
		lang     string
		business string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "invoice [transcript]",
		Short: "Extract a transaction and write its invoice as HTML or PDF",
		Long: `Extract a transaction and write its invoice. The output format follows the
extension of --out: ".pdf" writes a PDF, anything else writes HTML.`,
		Example: `  polyglot-invoice invoice --lang id --business restaurant --out nota.pdf "Jual nasi goreng 2 porsi"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			language, err := model.ParseLanguage(lang)
			if err != nil {
				return err
			}
			cfg, err := setup()
			if err != nil {
				return err
			}
			svc, err := newService(cfg, nil)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			tx, err := svc.ProcessVoiceTransaction(ctx, args[0], language)
			if err != nil {
				return err
			}

			var (
				content []byte
				number  string
			)
			if strings.EqualFold(filepath.Ext(out), ".pdf") {
				data, pdf, err := svc.InvoicePDF(ctx, tx, business)
				if err != nil {
					return err
				}
				content, number = pdf, data.InvoiceNumber
			} else {
				inv, err := svc.SynthesizeInvoice(ctx, tx, business)
				if err != nil {
					return err
				}
				content, number = []byte(inv.HTML), inv.Data.InvoiceNumber
			}

			err = os.WriteFile(out, content, 0o644)
			if err != nil {
				return utils.WrapIfNotNil(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote invoice %s to %s\n", number, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "en", "transcript language (en, id, th, vi, tl)")
	cmd.Flags().StringVarP(&business, "business", "b", "", "business type (restaurant, retail, services)")
	cmd.Flags().StringVarP(&out, "out", "o", "invoice.html", "output file, .html or .pdf")
	return cmd
}

func transcribeCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "transcribe [audio-file]",
		Short: "Transcribe a recorded clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			language, err := model.ParseLanguage(lang)
			if err != nil {
				return err
			}
			cfg, err := setup()
			if err != nil {
				return err
			}
			audio, err := os.ReadFile(args[0])
			if err != nil {
				return utils.WrapIfNotNil(err)
			}

			adapter := transcription.NewFromConfig(cfg, nil)
			transcript, err := adapter.Transcribe(cmd.Context(), audio, filepath.Base(args[0]), language)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), transcript)
			return nil
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "en", "spoken language (en, id, th, vi, tl)")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return utils.WrapIfNotNil(enc.Encode(v))
}
