package recorder

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/models"
	"redaction-worker-go/internal/services/messaging"
)

// Service archives the redacted output as rotating MP4 chunks. Frames are
// piped raw into an ffmpeg child process; every chunk interval the process
// is restarted onto a new file and the finished chunk's metadata is
// published over NATS.
type Service struct {
	cfg        *config.Config
	messageSvc *messaging.Service

	mutex        sync.Mutex
	recording    bool
	frameChannel chan *models.Frame
	stopCh       chan struct{}
	wg           sync.WaitGroup

	process     *exec.Cmd
	stdin       io.WriteCloser
	rotating    bool
	frameWidth  int
	frameHeight int
	frameCount  int64
	chunkStart  time.Time
}

func NewService(cfg *config.Config, messageSvc *messaging.Service) *Service {
	return &Service{
		cfg:        cfg,
		messageSvc: messageSvc,
	}
}

// Start begins recording. Frame dimensions are fixed for the session and
// must match every frame handed to ProcessFrame.
func (rs *Service) Start(width, height int) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	if rs.recording {
		return fmt.Errorf("recording is already running")
	}

	if err := os.MkdirAll(rs.cfg.VideoOutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rs.frameWidth = width
	rs.frameHeight = height
	rs.frameChannel = make(chan *models.Frame, 200)
	rs.stopCh = make(chan struct{})
	rs.frameCount = 0

	if err := rs.startFFmpeg(); err != nil {
		return err
	}

	rs.recording = true
	rs.wg.Add(2)
	go rs.processFrames()
	go rs.manageChunks()

	log.Info().
		Str("output_dir", rs.cfg.VideoOutputDir).
		Int("width", width).
		Int("height", height).
		Int("chunk_seconds", rs.cfg.VideoChunkTime).
		Msg("Started chunk-based recording")
	return nil
}

// ProcessFrame queues one redacted frame for encoding. When the buffer is
// full the oldest queued frame is dropped so the worker loop never blocks.
func (rs *Service) ProcessFrame(frame *models.Frame) {
	rs.mutex.Lock()
	if !rs.recording {
		rs.mutex.Unlock()
		return
	}
	ch := rs.frameChannel
	rs.mutex.Unlock()

	select {
	case ch <- frame:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- frame:
		default:
			log.Debug().Int64("frame_index", frame.Index).Msg("Dropped frame for recording (channel still full)")
		}
	}
}

func (rs *Service) IsRecording() bool {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	return rs.recording
}

func (rs *Service) processFrames() {
	defer rs.wg.Done()

	for {
		select {
		case <-rs.stopCh:
			return
		case frame := <-rs.frameChannel:
			if err := rs.writeFrame(frame); err != nil {
				log.Error().Err(err).Msg("Failed to write frame to chunk")
			}
		}
	}
}

func (rs *Service) writeFrame(frame *models.Frame) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	if rs.stdin == nil || rs.rotating {
		return nil
	}

	expectedSize := rs.frameWidth * rs.frameHeight * 3
	if len(frame.Data) != expectedSize {
		log.Debug().
			Int("actual_size", len(frame.Data)).
			Int("expected_size", expectedSize).
			Msg("Frame size mismatch - skipping frame")
		return nil
	}

	if _, err := rs.stdin.Write(frame.Data); err != nil {
		if err.Error() == "write |1: file already closed" {
			return nil
		}
		return fmt.Errorf("failed to write frame data to ffmpeg: %w", err)
	}
	rs.frameCount++
	return nil
}

func (rs *Service) startFFmpeg() error {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	chunkPath := filepath.Join(rs.cfg.VideoOutputDir, fmt.Sprintf("chunk_%s.mp4", timestamp))

	frameSize := fmt.Sprintf("%dx%d", rs.frameWidth, rs.frameHeight)
	args := []string{
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-s", frameSize,
		"-r", fmt.Sprintf("%d", rs.cfg.CaptureFPS),
		"-i", "-",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-movflags", "+faststart",
		"-f", "mp4",
		"-loglevel", "warning",
		chunkPath,
	}

	rs.process = exec.Command("ffmpeg", args...)
	rs.process.Dir = rs.cfg.VideoOutputDir

	stdin, err := rs.process.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	rs.stdin = stdin

	if err := rs.process.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	rs.chunkStart = time.Now()

	log.Info().
		Str("frame_size", frameSize).
		Str("chunk_path", chunkPath).
		Msg("ffmpeg process started for chunk recording")
	return nil
}

func (rs *Service) manageChunks() {
	defer rs.wg.Done()

	ticker := time.NewTicker(time.Duration(rs.cfg.VideoChunkTime) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-rs.stopCh:
			return
		case <-ticker.C:
			if err := rs.rotateChunk(); err != nil {
				log.Error().Err(err).Msg("Failed to rotate chunk")
			}
		}
	}
}

func (rs *Service) rotateChunk() error {
	log.Info().Msg("Rotating to new chunk")

	rs.mutex.Lock()
	rs.rotating = true
	rs.mutex.Unlock()

	// Let any in-flight write finish before closing the pipe.
	time.Sleep(100 * time.Millisecond)

	rs.mutex.Lock()
	rs.stopFFmpegLocked(5 * time.Second)
	err := rs.startFFmpeg()
	rs.rotating = false
	rs.mutex.Unlock()
	if err != nil {
		return fmt.Errorf("failed to start new chunk ffmpeg: %w", err)
	}

	if err := rs.publishChunkMetadata(); err != nil {
		log.Error().Err(err).Msg("Failed to publish chunk metadata")
	}
	if err := rs.cleanupOldChunks(); err != nil {
		log.Error().Err(err).Msg("Failed to cleanup old chunks")
	}
	return nil
}

func (rs *Service) stopFFmpegLocked(grace time.Duration) {
	if rs.stdin != nil {
		rs.stdin.Close()
		rs.stdin = nil
	}
	if rs.process == nil || rs.process.Process == nil {
		rs.process = nil
		return
	}

	if err := rs.process.Process.Signal(os.Interrupt); err != nil {
		log.Warn().Err(err).Msg("Failed to send interrupt to ffmpeg")
	}

	done := make(chan error, 1)
	go func(p *exec.Cmd) {
		done <- p.Wait()
	}(rs.process)

	select {
	case <-time.After(grace):
		rs.process.Process.Kill()
		log.Warn().Msg("Force killed ffmpeg process")
	case <-done:
	}
	rs.process = nil
}

func (rs *Service) publishChunkMetadata() error {
	pattern := filepath.Join(rs.cfg.VideoOutputDir, "chunk_*.mp4")
	chunks, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("failed to find chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	var latestChunk string
	var latestTime time.Time
	for _, chunk := range chunks {
		if stat, err := os.Stat(chunk); err == nil && stat.ModTime().After(latestTime) {
			latestTime = stat.ModTime()
			latestChunk = chunk
		}
	}
	if latestChunk == "" {
		return nil
	}

	fileInfo, err := os.Stat(latestChunk)
	if err != nil {
		return fmt.Errorf("failed to get chunk file info: %w", err)
	}

	chunkDuration := time.Duration(rs.cfg.VideoChunkTime) * time.Second
	metadata := models.ChunkMetadata{
		ChunkID:    filepath.Base(latestChunk),
		ChunkPath:  latestChunk,
		StartTime:  latestTime.Add(-chunkDuration),
		Duration:   chunkDuration.Seconds(),
		FileSize:   fileInfo.Size(),
		FrameCount: rs.frameCount,
	}

	if err := rs.messageSvc.Publish(rs.cfg.ChunksSubject, metadata); err != nil {
		return err
	}
	log.Info().
		Str("chunk", metadata.ChunkID).
		Int64("size_bytes", metadata.FileSize).
		Float64("duration_sec", metadata.Duration).
		Msg("Published chunk metadata")
	return nil
}

func (rs *Service) cleanupOldChunks() error {
	pattern := filepath.Join(rs.cfg.VideoOutputDir, "chunk_*.mp4")
	chunks, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("failed to find chunks: %w", err)
	}
	if len(chunks) <= rs.cfg.VideoMaxChunks {
		return nil
	}

	type chunkInfo struct {
		path    string
		modTime time.Time
	}
	var chunkList []chunkInfo
	for _, chunk := range chunks {
		if stat, err := os.Stat(chunk); err == nil {
			chunkList = append(chunkList, chunkInfo{path: chunk, modTime: stat.ModTime()})
		}
	}
	sort.Slice(chunkList, func(i, j int) bool {
		return chunkList[i].modTime.Before(chunkList[j].modTime)
	})

	removedCount := 0
	for i := 0; i < len(chunkList)-rs.cfg.VideoMaxChunks; i++ {
		if err := os.Remove(chunkList[i].path); err != nil {
			log.Warn().Err(err).Str("chunk_path", chunkList[i].path).Msg("Failed to remove old chunk")
		} else {
			removedCount++
		}
	}
	if removedCount > 0 {
		log.Info().
			Int("removed_chunks", removedCount).
			Int("max_chunks", rs.cfg.VideoMaxChunks).
			Msg("Cleaned up old video chunks")
	}
	return nil
}

// Stop ends the recording session and finalizes the current chunk.
func (rs *Service) Stop() error {
	rs.mutex.Lock()
	if !rs.recording {
		rs.mutex.Unlock()
		return fmt.Errorf("recording is not running")
	}
	rs.recording = false
	close(rs.stopCh)
	rs.mutex.Unlock()

	rs.wg.Wait()

	rs.mutex.Lock()
	rs.stopFFmpegLocked(5 * time.Second)
	rs.mutex.Unlock()

	if err := rs.publishChunkMetadata(); err != nil {
		log.Error().Err(err).Msg("Failed to publish final chunk metadata")
	}

	log.Info().Msg("Stopped recording")
	return nil
}

func (rs *Service) Shutdown(ctx context.Context) error {
	rs.mutex.Lock()
	recording := rs.recording
	rs.mutex.Unlock()

	if recording {
		return rs.Stop()
	}
	return nil
}
