package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner
func PrintBanner(config *Config, logger arbor.ILogger) {
	version := GetVersion()
	build := GetBuild()

	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)

	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(80)

	fmt.Printf("\n")
	b.PrintTopLine()
	b.PrintCenteredText("DROPSCOUT")
	b.PrintCenteredText("Stealthy Dropshipping Catalog Crawl Orchestrator")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", version, 15)
	b.PrintKeyValue("Build", build, 15)
	b.PrintKeyValue("Environment", config.Environment, 15)
	b.PrintKeyValue("Service URL", serviceURL, 15)
	b.PrintBottomLine()
	fmt.Printf("\n")

	logger.Info().
		Str("version", version).
		Str("build", build).
		Str("environment", config.Environment).
		Str("service_url", serviceURL).
		Str("config_file", "dropscout.toml").
		Msg("Application started")

	fmt.Printf("Configuration:\n")
	fmt.Printf("   - Config File: dropscout.toml\n")
	fmt.Printf("   - Web Interface: %s\n", serviceURL)

	logFilePath := ""
	if loggerWithPath, ok := interface{}(logger).(interface{ GetLogFilePath() string }); ok {
		logFilePath = loggerWithPath.GetLogFilePath()
		if logFilePath != "" {
			fmt.Printf("   - Log File: %s\n", logFilePath)
		}
	}
	fmt.Printf("\n")

	logger.Info().
		Str("log_file", logFilePath).
		Str("postgres_configured", boolLabel(config.Storage.Postgres.DSN != "")).
		Str("badger_path", config.Storage.Badger.Path).
		Str("fetcher_base_url", config.Fetcher.BaseURL).
		Str("webhook_base_url", config.Webhook.BaseURL).
		Msg("Configuration loaded")

	printCapabilities(config, logger)
	fmt.Printf("\n")
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// printCapabilities displays the system capabilities derived from config:
// which storage backends are configured, whether the fetcher and webhook
// are configured, and the pacing/warm-up posture the scheduler will use.
func printCapabilities(config *Config, logger arbor.ILogger) {
	fmt.Printf("Capabilities:\n")

	capabilities := []string{}

	if config.Storage.Postgres.DSN != "" {
		fmt.Printf("   - Postgres crawl queue store (SELECT ... FOR UPDATE SKIP LOCKED)\n")
		capabilities = append(capabilities, "postgres_queue")
	} else {
		fmt.Printf("   - WARNING: no Postgres DSN configured, queue store will fail to start\n")
	}

	fmt.Printf("   - Badger dedup/exclusion cache at %s\n", config.Storage.Badger.Path)
	capabilities = append(capabilities, "badger_cache")

	if config.Fetcher.BaseURL != "" {
		fmt.Printf("   - Fetcher client configured (%s)\n", config.Fetcher.BaseURL)
		capabilities = append(capabilities, "fetcher")
	} else {
		fmt.Printf("   - WARNING: FETCHER_BASE_URL not configured\n")
	}

	if config.Webhook.BaseURL != "" {
		fmt.Printf("   - Webhook callback address %s\n", config.Webhook.BaseURL)
		capabilities = append(capabilities, "webhook")
	} else {
		fmt.Printf("   - WARNING: WEBHOOK_BASE_URL not configured, callbacks cannot resolve\n")
	}

	fmt.Printf("   - Pacing: uniform delay [%ds, %ds], warm-up depth %d\n",
		config.Pacing.SubmitDelayMinSeconds, config.Pacing.SubmitDelayMaxSeconds, config.Pacing.WarmupQueueDepth)

	if config.SelfTest.Enabled {
		fmt.Printf("   - Fetcher self-test scheduled (%s)\n", config.SelfTest.Cron)
		capabilities = append(capabilities, "self_test")
	}

	logger.Info().
		Strs("capabilities", capabilities).
		Int("submit_delay_min_seconds", config.Pacing.SubmitDelayMinSeconds).
		Int("submit_delay_max_seconds", config.Pacing.SubmitDelayMaxSeconds).
		Int("warmup_queue_depth", config.Pacing.WarmupQueueDepth).
		Msg("System capabilities")
}

// PrintShutdownBanner displays the application shutdown banner
func PrintShutdownBanner(logger arbor.ILogger) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(42)

	b.PrintTopLine()
	b.PrintCenteredText("SHUTTING DOWN")
	b.PrintCenteredText("DROPSCOUT")
	b.PrintBottomLine()
	fmt.Println()

	logger.Info().Msg("Application shutting down")
}

// PrintColorizedMessage prints a message with specified color; it does not log (callers log separately)
func PrintColorizedMessage(color, message string, logger arbor.ILogger) {
	fmt.Printf("%s%s%s\n", color, message, banner.ColorReset)
}

// PrintSuccess prints a success message in green and logs it
func PrintSuccess(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorGreen, fmt.Sprintf("[ok] %s", message), logger)
	logger.Info().Str("type", "success").Msg(message)
}

// PrintError prints an error message in red and logs it
func PrintError(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorRed, fmt.Sprintf("[error] %s", message), logger)
	logger.Error().Str("type", "error").Msg(message)
}

// PrintWarning prints a warning message in yellow and logs it
func PrintWarning(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorYellow, fmt.Sprintf("[warn] %s", message), logger)
	logger.Warn().Str("type", "warning").Msg(message)
}

// PrintInfo prints an info message in cyan and logs it
func PrintInfo(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorCyan, fmt.Sprintf("[info] %s", message), logger)
	logger.Info().Str("type", "info").Msg(message)
}
