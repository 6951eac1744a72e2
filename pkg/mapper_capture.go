package pkg

import (
	"bufio"
	"context"
	"fmt"
	stdio "io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ecopia-map/rgbd_mapper/internal/device"
	"github.com/ecopia-map/rgbd_mapper/internal/io"
	"github.com/ecopia-map/rgbd_mapper/internal/mapper"
	"github.com/ecopia-map/rgbd_mapper/internal/session"
	"github.com/ecopia-map/rgbd_mapper/pkg/algorithm_manager"
	"github.com/ecopia-map/rgbd_mapper/tools"
)

const (
	CommandSave   = "s"
	CommandFilter = "f"
	CommandPause  = "p"
	CommandReset  = "r"
	CommandQuit   = "q"

	// pending saves before the capture loop blocks on the exporter
	exportQueueSize = 4
	statusInterval  = 5 * time.Second
)

type MapperCapture struct {
	device           device.Device
	algorithmManager algorithm_manager.AlgorithmManager
	input            stdio.Reader
}

// input feeds the commands of a headless run, one per line
func NewMapperCapture(dev device.Device, algorithmManager algorithm_manager.AlgorithmManager, input stdio.Reader) mapper.IMapper {
	return &MapperCapture{
		device:           dev,
		algorithmManager: algorithmManager,
		input:            input,
	}
}

// Opens the capture session and runs the capture loop until the user quits or ctx is cancelled.
// The last capture is saved on the way out.
func (mapperCapture *MapperCapture) RunMapper(ctx context.Context, opts *mapper.Options) (err error) {
	tools.LogOutput(tools.TagCamera, "connecting to", mapperCapture.device.Info().Name, "...")
	s, err := session.Open(ctx, mapperCapture.device, opts, mapperCapture.algorithmManager)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()

	depthCfg, colorCfg := s.Streams()
	stats := s.WarmupStats()
	info := s.DeviceInfo()
	tools.LogOutput(tools.TagCamera, fmt.Sprintf("session %s on %s serial %s: depth %s color %s, depth scale %v, warm-up %d frames at %.1f±%.1f fps",
		s.ID(), info.Name, info.Serial, depthCfg, colorCfg, s.DepthScale(), stats.Frames, stats.MeanFPS, stats.StdDevFPS))
	tools.LogOutput(tools.TagSystem, fmt.Sprintf("align policy %s, filters %s", opts.AlignPolicy, onOff(s.FiltersEnabled())))

	if opts.Headless {
		return mapperCapture.runHeadless(ctx, s)
	}
	return mapperCapture.runConsole(ctx, s)
}

func (mapperCapture *MapperCapture) runHeadless(ctx context.Context, s *session.Session) error {
	tools.LogOutput(tools.TagSystem, "commands: s save, f toggle filters, p pause, r reset filters, q quit")
	commands := readCommands(mapperCapture.input)

	// a single consumer keeps the saves in order
	workChannel := make(chan *io.ExportUnit, exportQueueSize)
	resultChannel := make(chan io.ExportResult, exportQueueSize)
	var waitGroup sync.WaitGroup
	waitGroup.Add(1)
	go s.Exporter().Consume(workChannel, resultChannel, &waitGroup)

	loopErr := headlessLoop(ctx, s, commands, workChannel, resultChannel)

	if unit, err := s.NewExportUnit(s.LastCapture(), ""); err == nil {
		tools.LogOutput(tools.TagExport, "saving last frame...")
		workChannel <- unit
	}
	close(workChannel)
	go func() {
		waitGroup.Wait()
		close(resultChannel)
	}()
	for result := range resultChannel {
		reportExport(result)
	}
	return loopErr
}

func headlessLoop(ctx context.Context, s *session.Session, commands <-chan string, workChannel chan<- *io.ExportUnit, resultChannel <-chan io.ExportResult) error {
	var (
		paused   bool
		frames   int
		skipped  int
		lastLog  = time.Now()
		lastSeen uint64
	)
	for {
		drainResults(resultChannel)
		if ctx.Err() != nil {
			return nil
		}

		var (
			cmd      string
			received bool
		)
		if paused {
			select {
			case <-ctx.Done():
				continue
			case cmd, received = <-commands:
				if !received {
					commands = nil
				}
			}
		} else {
			select {
			case cmd, received = <-commands:
				if !received {
					commands = nil
				}
			default:
			}
		}

		switch cmd {
		case "":
		case CommandSave:
			unit, err := s.NewExportUnit(s.LastCapture(), "")
			if err != nil {
				tools.LogOutput(tools.TagExport, "nothing to save:", err)
				break
			}
			workChannel <- unit
		case CommandFilter:
			tools.LogOutput(tools.TagSystem, "filters", onOff(s.ToggleFilters()))
		case CommandPause:
			paused = !paused
			tools.LogOutput(tools.TagSystem, "paused:", paused)
		case CommandReset:
			s.ResetFilters()
			tools.LogOutput(tools.TagSystem, "filter history cleared")
		case CommandQuit:
			return nil
		default:
			tools.LogOutput(tools.TagSystem, fmt.Sprintf("unknown command %q", cmd))
		}
		if paused {
			continue
		}

		capture, err := s.Next(ctx)
		switch {
		case err == nil:
			frames++
			lastSeen = capture.Seq
		case errors.Is(err, session.ErrSkipCycle):
			skipped++
		case ctx.Err() != nil:
			return nil
		default:
			return err
		}

		if time.Since(lastLog) >= statusInterval {
			tools.LogOutput(tools.TagCamera, fmt.Sprintf("frame %d, %d processed, %d skipped", lastSeen, frames, skipped))
			lastLog = time.Now()
		}
	}
}

// Lines of r, trimmed and lower cased. The channel is closed at end of input.
func readCommands(r stdio.Reader) <-chan string {
	commands := make(chan string)
	if r == nil {
		close(commands)
		return commands
	}
	go func() {
		defer close(commands)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if line := strings.ToLower(strings.TrimSpace(scanner.Text())); line != "" {
				commands <- line
			}
		}
		if err := scanner.Err(); err != nil {
			glog.Warningf("stopped reading commands: %v", err)
		}
	}()
	return commands
}

func drainResults(resultChannel <-chan io.ExportResult) {
	for {
		select {
		case result := <-resultChannel:
			reportExport(result)
		default:
			return
		}
	}
}

func reportExport(result io.ExportResult) {
	if result.Err != nil {
		tools.LogOutput(tools.TagExport, "save failed:", result.Err)
		return
	}
	tools.LogOutput(tools.TagExport, fmt.Sprintf("saved %d points to %s", result.Points, result.Path))
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
