package commonGo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/multiversx/mx-chain-logger-go/file"
)

// AttachFileLogger attaches, if required, a log file
func AttachFileLogger(
	log logger.Logger,
	defaultLogsPath string,
	logFilePrefix string,
	saveLogFile bool,
	workingDir string) (FileLoggingHandler, error) {
	var err error
	var logFile FileLoggingHandler
	if saveLogFile {
		argsFileLogging := file.ArgsFileLogging{
			WorkingDir:      workingDir,
			DefaultLogsPath: defaultLogsPath,
			LogFilePrefix:   logFilePrefix,
		}
		logFile, err = file.NewFileLogging(argsFileLogging)
		if err != nil {
			return nil, fmt.Errorf("%w creating a log file", err)
		}
	}

	err = logger.SetDisplayByteSlice(logger.ToHex)
	log.LogIfError(err)

	return logFile, nil
}

// ErrEnvValueNotSet signals a key missing from the .env file
var ErrEnvValueNotSet = errors.New("not set in the .env file")

// ReadEnvFile will read the file contents in the provided map
func ReadEnvFile(envFile string, m map[string]string) error {
	err := godotenv.Load(envFile)
	if err != nil {
		return err
	}

	for k := range m {
		val := os.Getenv(k)
		if len(val) == 0 {
			return fmt.Errorf("%s is %w", k, ErrEnvValueNotSet)
		}

		m[k] = val
	}

	return nil
}

// CronJobStarter is able to start a go routine that periodically calls the provided handler. The time between calls is
// provided as timeToCall and is measured from the end of the previous call, so calls never overlap. When callAtStart is
// set, the handler is also called right away. The returned channel is closed after the go routine exits.
func CronJobStarter(ctx context.Context, handler func(ctx context.Context), timeToCall time.Duration, callAtStart bool) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		timer := time.NewTimer(timeToCall)
		defer timer.Stop()

		if callAtStart {
			handler(ctx)
		}

		for {
			select {
			case <-timer.C:
				if ctx.Err() != nil {
					return
				}
				handler(ctx)
				timer.Reset(timeToCall)
			case <-ctx.Done():
				return
			}
		}
	}()

	return done
}
