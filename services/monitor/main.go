package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/iulianpascalau/alerts-monitoring/commonGo"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/config"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/factory"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/urfave/cli"
)

const (
	defaultLogsPath      = "logs"
	logFilePrefix        = "monitor"
	logFileLifeSpanInSec = 86400 // 24h
	logFileLifeSpanInMB  = 1024  // 1GB
	configFile           = "./config.toml"
	envFile              = "./.env"
	envServiceKey        = "SERVICE_KEY"
	envBearerToken       = "BEARER_TOKEN"
	sqliteFile           = "db/incidents.db"
)

// appVersion should be populated at build time using ldflags
// Usage examples:
// Linux/macOS:
//
//	go build -v -ldflags="-X main.appVersion=$(git describe --all | cut -c7-32)
var appVersion = "undefined"
var fileLogging commonGo.FileLoggingHandler

var (
	helpTemplate = `NAME:
   {{.Name}} - {{.Usage}}
USAGE:
   {{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}
   {{if len .Authors}}
AUTHOR:
   {{range .Authors}}{{ . }}{{end}}
   {{end}}{{if .Commands}}
GLOBAL OPTIONS:
   {{range .VisibleFlags}}{{.}}
   {{end}}
VERSION:
   {{.Version}}
   {{end}}
`

	log = logger.GetOrCreate("monitor")

	// logLevel defines the logger level
	logLevel = cli.StringFlag{
		Name: "log-level",
		Usage: "This flag specifies the logger `level(s)`. It can contain multiple comma-separated value. For example" +
			", if set to *:INFO the logs for all packages will have the INFO level. However, if set to *:INFO,poller:DEBUG" +
			" the logs for all packages will have the INFO level, excepting the poller package which will receive a DEBUG" +
			" log level.",
		Value: "*:" + logger.LogInfo.String(),
	}
	// logFile is used when the log output needs to be logged in a file
	logSaveFile = cli.BoolFlag{
		Name:  "log-save",
		Usage: "Boolean option for enabling log saving. If set, it will automatically save all the logs into a file.",
	}
	// workingDirectory defines a flag for the path for the working directory.
	workingDirectory = cli.StringFlag{
		Name:  "working-directory",
		Usage: "This flag specifies the `directory` where the service will store databases and logs.",
		Value: "",
	}
	// perspectiveOverride replaces the perspective set in the config file
	perspectiveOverride = cli.StringFlag{
		Name:  "perspective",
		Usage: "This flag overrides the `perspective` from the config file. Accepted values: admin, dev, acm.",
		Value: "",
	}
	// namespaceOverride replaces the namespace set in the config file
	namespaceOverride = cli.StringFlag{
		Name:  "namespace",
		Usage: "This flag overrides the `namespace` used by the dev perspective.",
		Value: "",
	}

	envFileContents = map[string]string{
		envServiceKey: "",
	}
)

func main() {
	app := cli.NewApp()
	cli.AppHelpTemplate = helpTemplate
	app.Name = "Alerts monitoring service"
	app.Version = fmt.Sprintf("%s/%s/%s-%s", appVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	app.Usage = "This is the entry point for starting a new service that keeps the alerting state of a cluster up to date"
	app.Flags = []cli.Flag{
		logLevel,
		logSaveFile,
		workingDirectory,
		perspectiveOverride,
		namespaceOverride,
	}
	app.Authors = []cli.Author{
		{
			Name:  "Iulian Pascalau",
			Email: "iulian.pascalau@gmail.com",
		},
	}

	app.Action = run

	defer func() {
		if fileLogging != nil {
			_ = fileLogging.Close()
		}
	}()

	err := app.Run(os.Args)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	saveLogFile := ctx.GlobalBool(logSaveFile.Name)
	workingDir := ctx.GlobalString(workingDirectory.Name)

	err := logger.SetLogLevel(ctx.GlobalString(logLevel.Name))
	if err != nil {
		return err
	}

	fileLogging, err = commonGo.AttachFileLogger(log, defaultLogsPath, logFilePrefix, saveLogFile, workingDir)
	if err != nil {
		return err
	}

	if !check.IfNil(fileLogging) {
		timeLogLifeSpan := time.Second * time.Duration(logFileLifeSpanInSec)
		sizeLogLifeSpanInMB := uint64(logFileLifeSpanInMB)
		err = fileLogging.ChangeFileLifeSpan(timeLogLifeSpan, sizeLogLifeSpanInMB)
		if err != nil {
			return err
		}
	}

	log.Info("Starting alerts monitoring service", "version", appVersion, "pid", os.Getpid())

	err = commonGo.ReadEnvFile(envFile, envFileContents)
	if err != nil {
		return err
	}
	// the bearer token is optional, unauthenticated endpoints are allowed
	bearerToken := os.Getenv(envBearerToken)

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if ctx.GlobalIsSet(perspectiveOverride.Name) {
		cfg.Perspective = ctx.GlobalString(perspectiveOverride.Name)
	}
	if ctx.GlobalIsSet(namespaceOverride.Name) {
		cfg.Namespace = ctx.GlobalString(namespaceOverride.Name)
	}

	components, err := factory.NewComponentsHandler(
		filepath.Join(workingDir, sqliteFile),
		envFileContents[envServiceKey],
		bearerToken,
		*cfg,
	)
	if err != nil {
		return err
	}

	components.Start()

	log.Info("Alerts monitoring service started", "address", components.GetServer().Address(),
		"perspective", cfg.Perspective, "namespace", cfg.Namespace)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	<-sigs

	log.Info("Application closing, calling Close on all subcomponents...")

	components.Close()

	return nil
}
