package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"selection_assistant/config"
	"selection_assistant/pkg/logger"
	"selection_assistant/pkg/selection"
	"selection_assistant/pkg/ui"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var pointerDriven bool

var overlayCmd = &cobra.Command{
	Use:   "overlay",
	Short: "Drive the floating menu from JSON-lines page events on stdin.",
	Long: `Reads one JSON event per line from stdin, for example
  {"type":"select","text":"Hello","rects":[{"left":100,"top":50,"width":80,"height":20}]}
  {"type":"translate"}
and writes the resulting view, toasts and clipboard writes as JSON lines to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runOverlay(ctx, os.Stdin, os.Stdout)
	},
}

func init() {
	overlayCmd.Flags().BoolVar(&pointerDriven, "pointer-driven", false, "only read the selection on pointerUp")
	rootCmd.AddCommand(overlayCmd)
}

// jsonLines 串行写出 JSON 行
type jsonLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (j *jsonLines) write(kind string, v interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(map[string]interface{}{kind: v}); err != nil {
		logger.Logger.Error("failed to write overlay output", "error", err.Error())
	}
}

func (j *jsonLines) Notify(t ui.Toast) {
	j.write("toast", t)
}

func (j *jsonLines) WriteText(ctx context.Context, text string) error {
	j.write("clipboard", text)
	return nil
}

func runOverlay(ctx context.Context, in io.Reader, out io.Writer) error {
	store, closeStore, err := openStore(ctx, config.Cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	client, closeBridge := openBridge(ctx, config.Cfg)
	defer closeBridge()

	var opts []selection.Option
	if pointerDriven {
		opts = append(opts, selection.WithPointerDriven())
	}
	lines := &jsonLines{enc: json.NewEncoder(out)}
	lines.enc.SetEscapeHTML(false)

	overlay, err := ui.NewOverlay(ctx, selection.NewTracker(opts...), store, client, lines, lines)
	if err != nil {
		return err
	}
	defer overlay.Close()
	overlay.OnUpdate(func(v ui.View) { lines.write("view", v) })

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// 其他设备改了设置时同步过来
	g.Go(func() error {
		return store.Watch(ctx)
	})

	g.Go(func() error {
		defer cancel()
		var pending sync.WaitGroup
		defer pending.Wait()

		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			txt := strings.TrimSpace(scanner.Text())
			if txt == "" {
				continue
			}
			var e ui.Event
			if err := json.Unmarshal([]byte(txt), &e); err != nil {
				lines.write("error", "malformed event: "+err.Error())
				continue
			}
			done, err := overlay.Apply(ctx, e)
			if err != nil {
				lines.write("error", err.Error())
				continue
			}
			if done != nil {
				pending.Add(1)
				go func() {
					defer pending.Done()
					<-done
				}()
			}
		}
		return scanner.Err()
	})

	return g.Wait()
}
