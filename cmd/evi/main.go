package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rojolang/evi-sdk-go/pkg/evi"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	apiKey     string
	configFile string
	endpoint   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "evi",
		Short: "Hume EVI speech-to-speech CLI",
		Long:  "Talk to a Hume Empathic Voice Interface config through the local microphone and speakers",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				lc := evi.DefaultLogConfig()
				lc.Level = evi.DebugLevel
				evi.SetGlobalLogger(evi.NewLogger(lc))
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Hume API key (default $HUME_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "EVI chat websocket endpoint")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(configsCmd())
	rootCmd.AddCommand(chatsCmd())
	rootCmd.AddCommand(devicesCmd())
	rootCmd.AddCommand(setupCmd())

	if err := rootCmd.Execute(); err != nil {
		evi.GetGlobalLogger().WithError(err).Fatal("CLI execution failed")
	}
}

func loadConfig() (*evi.Config, error) {
	var config *evi.Config
	if configFile != "" {
		c, err := evi.LoadConfigFile(configFile)
		if err != nil {
			return nil, err
		}
		config = c
	} else {
		config = evi.LoadConfig()
	}

	if apiKey != "" {
		config.APIKey = apiKey
	}
	if endpoint != "" {
		config.WsEndpoint = endpoint
	}
	if !verbose {
		evi.SetGlobalLogger(evi.NewLogger(config.LogConfig()))
	}
	return config, nil
}

func chatCmd() *cobra.Command {
	var (
		configID       string
		allowInterrupt bool
		inputDevice    int
		outputDevice   int
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start a voice chat",
		Long:  "Open an EVI chat, stream the microphone to it and play the assistant's speech",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			if configID != "" {
				config.ConfigID = configID
			}
			if cmd.Flags().Changed("allow-interrupt") {
				config.AllowUserInterrupt = allowInterrupt
			}
			if cmd.Flags().Changed("input-device") {
				config.InputDeviceID = &inputDevice
			}
			if cmd.Flags().Changed("output-device") {
				config.OutputDeviceID = &outputDevice
			}

			if issues := config.Validate(); len(issues) > 0 {
				for _, issue := range issues {
					fmt.Fprintln(os.Stderr, "config:", issue)
				}
				return fmt.Errorf("invalid configuration")
			}

			micConfig := evi.NewMicrophoneConfig()
			micConfig.DeviceID = config.InputDeviceID
			mic, err := evi.NewPortAudioMicrophone(micConfig)
			if err != nil {
				return err
			}
			defer mic.Close()

			player, err := evi.NewPortAudioPlayerForDevice(config.OutputDeviceID)
			if err != nil {
				return err
			}
			defer player.Close()

			opts := []evi.Option{evi.WithMicrophone(mic), evi.WithPlayer(player)}
			if verbose || config.DebugWebsocket {
				opts = append(opts, evi.WithMessageHandler(evi.CreateDebugHandler(evi.GetGlobalLogger().WithComponent("events"))))
			}
			session := evi.NewSessionFromConfig(config, opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			evi.GetGlobalLogger().WithField("session_id", session.ID()).Info("Starting chat")
			err = session.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&configID, "config-id", "", "EVI config id (default $HUME_CONFIG_ID)")
	cmd.Flags().BoolVar(&allowInterrupt, "allow-interrupt", false, "Keep sending microphone audio while the assistant speaks")
	cmd.Flags().IntVar(&inputDevice, "input-device", 0, "Input device id from 'evi devices list'")
	cmd.Flags().IntVar(&outputDevice, "output-device", 0, "Output device id from 'evi devices list'")
	return cmd
}

func configsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configs",
		Short: "EVI config commands",
	}

	var page, size int
	list := &cobra.Command{
		Use:   "list",
		Short: "List EVI configs",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			result := evi.NewAPIClientFromConfig(config).ListConfigs(ctx, page, size)
			if !result.Success {
				return result.Error
			}

			fmt.Printf("Configs (page %d of %d):\n", result.Data.PageNumber+1, result.Data.TotalPages)
			for _, c := range result.Data.Configs {
				fmt.Printf("  %s  v%d  %s\n", c.ID, c.Version, c.Name)
			}
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 0, "Page number, starting at 0")
	list.Flags().IntVar(&size, "page-size", 10, "Results per page")

	cmd.AddCommand(list)
	return cmd
}

func chatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Past chat commands",
	}

	var page, size int
	list := &cobra.Command{
		Use:   "list",
		Short: "List past chats, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			result := evi.NewAPIClientFromConfig(config).ListChats(ctx, page, size)
			if !result.Success {
				return result.Error
			}

			for _, c := range result.Data.Chats {
				started := time.UnixMilli(c.StartTimestamp).UTC().Format(time.RFC3339)
				fmt.Printf("  %s  %-10s  %s  group %s\n", c.ID, c.Status, started, c.ChatGroupID)
			}
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 0, "Page number, starting at 0")
	list.Flags().IntVar(&size, "page-size", 10, "Results per page")

	cmd.AddCommand(list)
	return cmd
}

func devicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Audio device management",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := evi.ListAudioDevices()
			if err != nil {
				return err
			}

			fmt.Println("Available Audio Devices:")
			for _, device := range devices {
				fmt.Printf("  %s\n", device)
			}
			return nil
		},
	})

	var input bool
	check := &cobra.Command{
		Use:   "check [device-id]",
		Short: "Check that a device can be used for chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid device id %q", args[0])
			}

			devices, err := evi.ListAudioDevices()
			if err != nil {
				return err
			}
			if err := evi.ValidateAudioDevice(devices, id, input); err != nil {
				return err
			}
			fmt.Printf("Device %d is usable\n", id)
			return nil
		},
	}
	check.Flags().BoolVar(&input, "input", false, "Check as an input device instead of output")
	cmd.AddCommand(check)

	return cmd
}

func setupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Setup and configuration commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			config.PrintConfig()
			if issues := config.Validate(); len(issues) > 0 {
				fmt.Println("\nIssues:")
				for _, issue := range issues {
					fmt.Printf("  - %s\n", issue)
				}
			}
			return nil
		},
	})

	return cmd
}
