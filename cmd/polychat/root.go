package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Zacy-Sokach/PolyChat/internal/chat"
	"github.com/Zacy-Sokach/PolyChat/internal/config"
	"github.com/Zacy-Sokach/PolyChat/internal/events"
	"github.com/Zacy-Sokach/PolyChat/internal/logging"
	"github.com/Zacy-Sokach/PolyChat/internal/store"
	"github.com/Zacy-Sokach/PolyChat/internal/tui"
	"github.com/Zacy-Sokach/PolyChat/internal/update"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app 命令之间共享的运行状态
type app struct {
	configPath string
	storeKind  string
	storePath  string
	window     int
	showAll    bool
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{window: -1}

	root := &cobra.Command{
		Use:   "polychat",
		Short: "PolyChat - 终端里的聊天消息面板",
		Long: `PolyChat 在终端中显示一段对话：最近的消息、多选、复制删除、时间标签，
并在存储变化时自动刷新。

不带参数运行时启动交互界面。`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runTUI,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", configFlagUsage())
	flags.StringVar(&a.storeKind, "store", "", "存储类型: file | sqlite | http | memory")
	flags.StringVar(&a.storePath, "path", "", "存储文件路径")
	flags.IntVar(&a.window, "window", -1, "最多显示的消息数，0 表示全部")
	flags.BoolVar(&a.showAll, "all", false, "显示全部消息")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "输出调试日志")

	root.AddCommand(newVersionCmd(), newExportCmd(a), newImportCmd(a))
	return root
}

// configFlagUsage --config 的说明，带上当前环境下的默认路径
func configFlagUsage() string {
	path, err := config.Path()
	if err != nil {
		return "配置文件路径"
	}
	return fmt.Sprintf("配置文件路径 (默认 %s)", path)
}

// setup 加载 .env、配置和日志
func (a *app) setup(cmd *cobra.Command, args []string) error {
	// .env 不存在时忽略
	_ = godotenv.Load()

	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFrom(a.configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	if a.storeKind != "" {
		cfg.Store.Kind = a.storeKind
	}
	if a.storePath != "" {
		cfg.Store.Path = a.storePath
	}
	if a.window >= 0 {
		cfg.UI.ShowAll = a.window == 0
		if a.window > 0 {
			cfg.UI.WindowSize = a.window
		}
	}
	if a.showAll {
		cfg.UI.ShowAll = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, a.verbose)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) openStore() (store.Store, error) {
	st, err := store.Open(a.cfg.Store, a.logger)
	if err != nil {
		return nil, fmt.Errorf("打开存储失败: %w", err)
	}
	return st, nil
}

func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	renderer, err := tui.NewRenderer(a.cfg.UI.Renderer)
	if err != nil {
		return err
	}

	session := chat.NewSession()
	vm := chat.NewListViewModel(session, st, a.cfg.UI.EffectiveWindow(), a.logger)
	debounce := time.Duration(a.cfg.UI.DebounceMS) * time.Millisecond

	model := tui.New(tui.Options{
		ViewModel: vm,
		Bus:       events.NewBus(),
		User:      a.cfg.User,
		Renderer:  renderer,
		Debounce:  debounce,
		Logger:    a.logger,
	})
	defer model.Close()

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithReportFocus()}
	if a.cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(model, opts...)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if path, ok := store.Watchable(st); ok && !a.cfg.Store.NoWatch {
		w, err := store.NewWatcher(path, debounce, func(c store.Change) {
			switch c.Kind {
			case store.ChangeMessages:
				p.Send(tui.StoreChangedMsg{})
			case store.ChangeProcessing:
				p.Send(tui.ProcessingMsg{Processing: c.Processing})
			}
		}, a.logger)
		if err != nil {
			a.logger.Warn("创建存储监视器失败", zap.Error(err))
		} else {
			defer w.Stop()
			if err := w.Start(ctx); err != nil {
				a.logger.Warn("启动存储监视器失败", zap.Error(err))
			} else if w.Processing() {
				go p.Send(tui.ProcessingMsg{Processing: true})
			}
		}
	}

	a.logger.Info("启动界面",
		zap.String("store", st.Kind()),
		zap.Int("window", a.cfg.UI.EffectiveWindow()))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("运行界面失败: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		// 版本命令不需要加载配置
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "PolyChat %s\n", Version)
			if !check {
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			newer, release, err := update.NewChecker(nil).CheckForUpdate(ctx, Version)
			if err != nil {
				return fmt.Errorf("检查更新失败: %w", err)
			}
			if newer {
				fmt.Fprintf(out, "发现新版本 %s: %s\n", release.TagName, release.HTMLURL)
			} else {
				fmt.Fprintln(out, "已是最新版本")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "检查 GitHub 上的最新版本")
	return cmd
}
