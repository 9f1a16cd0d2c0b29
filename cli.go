package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"hotmic/internal/audio/mic"
	"hotmic/internal/config"
	"hotmic/internal/credentials"
	"hotmic/internal/domain"
	"hotmic/internal/history"
	"hotmic/internal/hotkey"
	"hotmic/internal/models"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "hotmic",
		Short:         "Hotkey dictation: speak, and the text lands at your cursor",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp()
		},
	}
	root.AddCommand(
		newHotkeyCommand(),
		newCredentialCommand(credentials.New()),
		newModelsCommand(),
		newDevicesCommand(),
		newHistoryCommand(),
		newVersionCommand(),
	)
	return root
}

func parseMode(s string) (domain.HotkeyMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "toggle":
		return domain.ModeToggle, nil
	case "ptt", "push-to-talk", "push_to_talk":
		return domain.ModePushToTalk, nil
	default:
		return "", fmt.Errorf("unknown hotkey mode %q (want toggle or ptt)", s)
	}
}

func newHotkeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hotkey",
		Short: "Show or change the dictation hotkeys",
	}

	update := func(mode string, binding domain.HotkeyBinding) error {
		m, err := parseMode(mode)
		if err != nil {
			return err
		}
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		cfg, err := config.ReadFile(path)
		if err != nil {
			return err
		}
		if err := cfg.SetHotkey(m, binding); err != nil {
			return err
		}
		return config.Save(cfg)
	}

	set := &cobra.Command{
		Use:     "set <toggle|ptt> <combo>",
		Short:   "Bind a mode to a key combination such as ctrl+shift+space",
		Args:    cobra.ExactArgs(2),
		Example: "  hotmic hotkey set toggle ctrl+alt+d",
		RunE: func(cmd *cobra.Command, args []string) error {
			binding, err := hotkey.ParseBinding(args[1])
			if err != nil {
				return err
			}
			if err := update(args[0], binding); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s bound to %s\n", args[0], hotkey.FormatBinding(binding))
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear <toggle|ptt>",
		Short: "Unbind a mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := update(args[0], domain.UnsetBinding()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s cleared\n", args[0])
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current bindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultPath()
			if err != nil {
				return err
			}
			cfg, err := config.ReadFile(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "toggle: %s\n", hotkey.FormatBinding(cfg.Hotkeys.Toggle))
			fmt.Fprintf(out, "ptt:    %s\n", hotkey.FormatBinding(cfg.Hotkeys.PushToTalk))
			return nil
		},
	}

	cmd.AddCommand(set, clearCmd, show)
	return cmd
}

type credentialStore interface {
	Set(provider, secret string) error
	Delete(provider string) error
}

func newCredentialCommand(store credentialStore) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage cloud provider API keys in the system keychain",
	}

	set := &cobra.Command{
		Use:   "set <openai|deepgram> [key]",
		Short: "Store an API key; reads it from stdin when omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := ""
			if len(args) == 2 {
				secret = args[1]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				secret = line
			}
			if err := store.Set(args[0], secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s key stored\n", args[0])
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <openai|deepgram>",
		Short: "Remove a stored API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s key removed\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(set, del)
	return cmd
}

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List whisper.cpp models and whether they are downloaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store := models.NewStore(cfg.Storage.ModelsDir)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tSIZE\tSTATUS\tSOURCE")
			for _, st := range store.List() {
				status := "missing"
				if st.Present {
					status = "present"
				}
				if st.Name == cfg.Engine.Model {
					status += " (selected)"
				}
				fmt.Fprintf(w, "%s\t%d MB\t%s\t%s\n", st.Name, st.SizeBytes>>20, status, st.URL())
			}
			return w.Flush()
		},
	}
}

func newDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List microphone input devices by the name input_device expects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			capture := mic.New(nil)
			defer capture.Close()

			names, err := capture.Devices()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent transcriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.Storage.HistoryPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			entries, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "no transcriptions yet")
				return nil
			}
			for _, e := range entries {
				via := e.Engine
				if e.Fallback {
					via += " (fallback)"
				}
				fmt.Fprintf(out, "%s  %-22s %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04"), via, e.Final)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hotmic version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "hotmic "+version)
		},
	}
}
