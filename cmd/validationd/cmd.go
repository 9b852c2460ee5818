package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"katydid-model-validation/pkg/config"
	"katydid-model-validation/pkg/logger"
	"katydid-model-validation/pkg/validation"
)

const shutdownTimeout = 10 * time.Second

var (
	configFile string
	modelName  string
)

var rootCmd = &cobra.Command{
	Use:          "validationd",
	Short:        "Model validation service",
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP validation service",
	Long:  `The serve command starts an HTTP server that binds JSON payloads into registered models and validates them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadApp(configFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		log, err := logger.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("error creating logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a JSON file against a registered model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadApp(configFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("error reading %s: %w", args[0], err)
		}

		engine := newEngine(cfg, logger.Nop())
		verr, err := check(engine, modelName, data)
		if err != nil {
			return err
		}
		if verr == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		}

		out, err := json.MarshalIndent(verr, "", "  ")
		if err != nil {
			return fmt.Errorf("error encoding result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return errors.New("validation failed")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to the config file (yaml, json or toml)")
	checkCmd.Flags().StringVarP(&modelName, "model", "m", "", "name of the registered model")
	_ = checkCmd.MarkFlagRequired("model")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
}

// newEngine 按配置创建校验引擎
func newEngine(cfg *config.AppConfig, log *zap.Logger) *validation.Engine {
	return validation.NewEngine(demoMetadata, newProviders(),
		validation.WithLogger(log),
		validation.WithMaxDepth(cfg.Validation.MaxDepth),
		validation.WithRecoverPanics(cfg.Validation.RecoverPanics),
		validation.WithNestedStructs(cfg.Validation.NestedStructs),
	)
}

// check 把 JSON 解码到指定模型并校验
// 第一个返回值为校验错误，第二个返回值为执行错误
func check(engine *validation.Engine, name string, data []byte) (validation.ValidationErrors, error) {
	target, ok := newModel(name)
	if !ok {
		return nil, fmt.Errorf("unknown model %q", name)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return nil, fmt.Errorf("error decoding payload: %w", err)
	}

	err := engine.Validate(target)
	if err == nil {
		return nil, nil
	}
	if verr, ok := validation.AsValidationErrors(err); ok {
		return verr, nil
	}
	return nil, err
}

// serve 启动 HTTP 服务，ctx 结束时优雅退出
func serve(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) error {
	gin.SetMode(cfg.Server.GinMode)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(newEngine(cfg, log), log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("validation service started", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("shutting down validation service")
	return srv.Shutdown(shutdownCtx)
}
