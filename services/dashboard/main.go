package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/iulianpascalau/healthvital-monitoring/commonGo"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/config"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/factory"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/urfave/cli"
)

const (
	defaultLogsPath      = "logs"
	logFilePrefix        = "dashboard"
	logFileLifeSpanInSec = 86400 // 24h
	logFileLifeSpanInMB  = 1024  // 1GB
	envFile              = "./.env"
	envSimulationSeed    = "SIMULATION_SEED"
)

// appVersion should be populated at build time using ldflags
// Usage examples:
// Linux/macOS:
//
//	go build -v -ldflags="-X main.appVersion=$(git describe --all | cut -c7-32)
var appVersion = "undefined"
var fileLogging commonGo.FileLoggingHandler

var (
	dashboardHelpTemplate = `NAME:
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

	log = logger.GetOrCreate("dashboard")

	// logLevel defines the logger level
	logLevel = cli.StringFlag{
		Name: "log-level",
		Usage: "This flag specifies the logger `level(s)`. It can contain multiple comma-separated value. For example" +
			", if set to *:INFO the logs for all packages will have the INFO level. However, if set to *:INFO,engine:DEBUG" +
			" the logs for all packages will have the INFO level, excepting the engine package which will receive a DEBUG" +
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
		Usage: "This flag specifies the `directory` where the dashboard will store the alert journal and logs.",
		Value: "",
	}
	// configFile defines the path to the dashboard's toml file
	configFile = cli.StringFlag{
		Name:  "config",
		Usage: "The `filepath` of the dashboard's toml configuration file.",
		Value: "./config.toml",
	}
)

func main() {
	app := cli.NewApp()
	cli.AppHelpTemplate = dashboardHelpTemplate
	app.Name = "Health vitals dashboard service"
	app.Version = fmt.Sprintf("%s/%s/%s-%s", appVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	app.Usage = "This is the entry point for starting the simulated vital signs dashboard of one patient"
	app.Flags = []cli.Flag{
		logLevel,
		logSaveFile,
		workingDirectory,
		configFile,
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

	log.Info("Starting dashboard service", "version", appVersion, "pid", os.Getpid())

	cfg, err := config.LoadConfig(ctx.GlobalString(configFile.Name))
	if err != nil {
		return err
	}

	seed, err := readSeed(envFile, cfg.Seed)
	if err != nil {
		return err
	}

	components, err := factory.NewComponentsHandler(*cfg, seed)
	if err != nil {
		return err
	}

	err = components.Start()
	if err != nil {
		components.Close()
		return err
	}
	log.Info("Dashboard service started", "address", components.GetServer().Address())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	<-sigs

	log.Info("Application closing, calling Close on all subcomponents...")
	components.Close()

	return nil
}

// readSeed returns the seed from the optional .env file, falling back to the configured one when the file or the
// key is missing
func readSeed(envPath string, configured int64) (int64, error) {
	_, err := os.Stat(envPath)
	if errors.Is(err, os.ErrNotExist) {
		return configured, nil
	}

	envFileContents := map[string]string{
		envSimulationSeed: "",
	}
	err = commonGo.ReadEnvFile(envPath, envFileContents)
	if errors.Is(err, commonGo.ErrEnvValueNotSet) {
		log.Debug("no simulation seed in the .env file, using the configured one", "seed", configured)
		return configured, nil
	}
	if err != nil {
		return 0, err
	}

	seed, err := strconv.ParseInt(envFileContents[envSimulationSeed], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w while parsing %s", err, envSimulationSeed)
	}
	log.Debug("simulation seed read from the .env file", "seed", seed)

	return seed, nil
}
