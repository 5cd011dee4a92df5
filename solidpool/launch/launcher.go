package launch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/sjy-dv/solidpool/solidpool/backend"
	"github.com/sjy-dv/solidpool/solidpool/pkg/log"
	"github.com/sjy-dv/solidpool/solidpool/pool"
	"github.com/sjy-dv/solidpool/solidpool/poolcore"
	"github.com/sjy-dv/solidpool/solidpool/server"
)

const runLockName = "FLOCK"

type PoolLauncher struct {
	Pool        poolcore.Pool
	Admin       *server.AdminServer
	ErrLogCh    chan error
	RunningPort string
	runLock     *flock.Flock
}

type poolConfig struct {
	Backend           string
	Endpoint          string
	Principal         string
	Credential        string
	Database          string
	HeartData         string
	MinSize           uint32
	MaxSize           uint32
	AcquireTimeout    time.Duration
	ValidateOnRelease bool
	BlockOnExhaustion bool
	MaxIdleTime       time.Duration
	DialLimit         uint32
	RunDir            string
	AdminPort         string
	LogLevel          string
}

var poolLauncher *PoolLauncher

func GetPoolLauncher() *PoolLauncher {
	return poolLauncher
}

func LoadEnv() *PoolLauncher {
	pl := &PoolLauncher{}
	pl.ErrLogCh = make(chan error)

	config := defaultConfig()
	if path := os.Getenv("CONFIG"); path != "" {
		if err := loadConfigFile(path, config); err != nil {
			log.Warn(fmt.Sprintf("Failed to Load Config File %s: %v", path, err))
		} else {
			log.Info(fmt.Sprintf("SolidPool Config File Loaded %s", path))
		}
	}
	loadEnvOverrides(config)
	log.SetLevel(config.LogLevel)

	if config.Endpoint == "" {
		log.Warn("CRITICAL SystemCrashError: no endpoint configured")
		os.Exit(0)
	}
	log.Info(fmt.Sprintf("SolidPool Backend %s Endpoint %s", config.Backend, config.Endpoint))
	log.Info(fmt.Sprintf("SolidPool Configure MinSize %d MaxSize %d", config.MinSize, config.MaxSize))
	if config.AcquireTimeout > 0 {
		log.Info(fmt.Sprintf("SolidPool Acquire Timeout %s", config.AcquireTimeout))
	} else {
		log.Info("SolidPool Acquire Waits Without Timeout")
	}

	if err := pl.holdRunLock(config.RunDir); err != nil {
		log.Warn(fmt.Sprintf("CRITICAL SystemCrashError: %v", err))
		os.Exit(0)
	}

	factory, validator, err := buildBackend(config)
	if err != nil {
		log.Warn(fmt.Sprintf("CRITICAL SystemCrashError: %v", err))
		os.Exit(0)
	}

	pl.Pool, err = pool.New(factory, validator,
		poolcore.WithParams(poolcore.ConnectionParams{
			Endpoint:   config.Endpoint,
			Principal:  config.Principal,
			Credential: config.Credential,
		}),
		poolcore.WithMinSize(config.MinSize),
		poolcore.WithMaxSize(config.MaxSize),
		poolcore.WithAcquireTimeout(config.AcquireTimeout),
		poolcore.WithValidateOnRelease(config.ValidateOnRelease),
		poolcore.WithBlockOnExhaustion(config.BlockOnExhaustion),
		poolcore.WithMaxIdleTime(config.MaxIdleTime),
		poolcore.WithDialLimit(config.DialLimit),
	)
	if err != nil {
		log.Warn(fmt.Sprintf("CRITICAL SystemCrashError: %v", err))
		os.Exit(0)
	}

	pl.RunningPort = config.AdminPort
	pl.Admin = server.NewAdminServer(pl.Pool, pl.RunningPort, 0, 0)
	pl.ascii(config)
	return pl
}

func (pl *PoolLauncher) LaunchSolidPoolSystem() {
	log.Info("This System is dependent on ", runtime.Version(), "version.")
	poolLauncher = pl

	go func() {
		if err := pl.Admin.Run(); err != nil {
			pl.ErrLogCh <- err
		}
	}()
	go pl.activeErrorLog()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("SolidPool Draining...")

	report := pl.Pool.Shutdown()
	log.Info(fmt.Sprintf("SolidPool Drained closed=%d failures=%d",
		report.ClosedCount, len(report.Failures)))
	for _, err := range report.Failures {
		log.Error(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pl.Admin.Stop(ctx); err != nil {
		log.Error(err)
	}
	if pl.runLock != nil {
		_ = pl.runLock.Unlock()
	}
}

func (pl *PoolLauncher) holdRunLock(runDir string) error {
	if _, err := os.Stat(runDir); err != nil {
		if err := os.MkdirAll(runDir, os.ModePerm); err != nil {
			return err
		}
	}
	pl.runLock = flock.New(filepath.Join(runDir, runLockName))
	hold, err := pl.runLock.TryLock()
	if err != nil {
		return err
	}
	if !hold {
		return fmt.Errorf("runtime directory %s is already held", runDir)
	}
	return nil
}

func buildBackend(config *poolConfig) (poolcore.Factory, poolcore.Validator, error) {
	switch config.Backend {
	case "tcp":
		return &backend.TCPFactory{DialTimeout: 5 * time.Second},
			&backend.TCPValidator{HeartData: []byte(config.HeartData)}, nil
	case "redis":
		return &backend.RedisFactory{}, &backend.RedisValidator{}, nil
	case "mysql":
		return &backend.MySQLFactory{DBName: config.Database}, &backend.MySQLValidator{}, nil
	case "grpc":
		return &backend.GRPCFactory{DialTimeout: 5 * time.Second}, &backend.GRPCValidator{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", config.Backend)
	}
}

func loadEnvOverrides(config *poolConfig) {
	if v := os.Getenv("BACKEND"); v != "" {
		config.Backend = v
	}
	if v := os.Getenv("ENDPOINT"); v != "" {
		config.Endpoint = v
	}
	if v := os.Getenv("PRINCIPAL"); v != "" {
		config.Principal = v
	}
	if v := os.Getenv("CREDENTIAL"); v != "" {
		config.Credential = v
	}
	if v := os.Getenv("DATABASE"); v != "" {
		config.Database = v
	}
	if v := os.Getenv("HEART_DATA"); v != "" {
		config.HeartData = v
	}
	if v := os.Getenv("MIN_SIZE"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			log.Info(fmt.Sprintf("Failed to Configure Min Size. Set Default Size : %d", config.MinSize))
		} else {
			config.MinSize = uint32(n)
		}
	}
	if v := os.Getenv("MAX_SIZE"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			log.Info(fmt.Sprintf("Failed to Configure Max Size. Set Default Size : %d", config.MaxSize))
		} else {
			config.MaxSize = uint32(n)
		}
	}
	if v := os.Getenv("ACQUIRE_TIMEOUT_MS"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Info("Failed to Configure Acquire Timeout. Set No Timeout")
		} else {
			config.AcquireTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("MAX_IDLE_TIME_MS"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Info("Failed to Configure Max Idle Time. Set No Limit")
		} else {
			config.MaxIdleTime = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("DIAL_LIMIT"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			log.Info("Failed to Configure Dial Limit. Set No Limit")
		} else {
			config.DialLimit = uint32(n)
		}
	}
	if v := os.Getenv("VALIDATE_ON_RELEASE"); v != "" {
		config.ValidateOnRelease = v == "1"
	}
	if v := os.Getenv("BLOCK_ON_EXHAUSTION"); v != "" {
		config.BlockOnExhaustion = v != "0"
	}
	if v := os.Getenv("RUN_DIR"); v != "" {
		config.RunDir = v
	}
	if v := os.Getenv("ADMIN_PORT"); v != "" {
		config.AdminPort = fmt.Sprintf(":%s", v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
}

func (pl *PoolLauncher) activeErrorLog() {
	for err := range pl.ErrLogCh {
		if err != nil {
			log.Error(err)
		}
	}
}

func (pl *PoolLauncher) ascii(config *poolConfig) {
	asciiart := `
	 ____        _ _     _ ____             _
	/ ___|  ___ | (_) __| |  _ \ ___   ___ | |
	\___ \ / _ \| | |/ _' | |_) / _ \ / _ \| |
	 ___) | (_) | | | (_| |  __/ (_) | (_) | |
	|____/ \___/|_|_|\__,_|_|   \___/ \___/|_|

	SolidPool v1.0.0
	Admin running in %s
	Backend: %s (%s)
	Pool bounds: min=%d max=%d`
	fmt.Println(fmt.Sprintf(asciiart,
		pl.RunningPort, config.Backend, config.Endpoint, config.MinSize, config.MaxSize))
}
