package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"

	"github.com/san-kum/talkalot/internal/recorder"
)

const (
	DefaultSampleRate      = 44100
	DefaultFramesPerBuffer = 1024
	DefaultMeterInterval   = 100 * time.Millisecond
)

var (
	ErrRecordingNotAllowed = errors.New("audio: current mode does not allow recording")
	ErrNoInputDevice       = errors.New("audio: no input device")
)

// ArtifactSink hands out locations for new recordings.
type ArtifactSink interface {
	NewArtifactPath() (id, path string, err error)
}

type Options struct {
	SampleRate      int
	FramesPerBuffer int
	MeterInterval   time.Duration
	AllowMicrophone bool
}

func (o *Options) defaults() {
	if o.SampleRate <= 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.FramesPerBuffer <= 0 {
		o.FramesPerBuffer = DefaultFramesPerBuffer
	}
	if o.MeterInterval <= 0 {
		o.MeterInterval = DefaultMeterInterval
	}
}

// Device is the PortAudio implementation of recorder.Media.
type Device struct {
	opts Options
	sink ArtifactSink
	log  *zap.Logger

	initOnce sync.Once
	initErr  error

	mu   sync.Mutex
	perm recorder.Permission
	mode recorder.AudioMode
}

func NewDevice(opts Options, sink ArtifactSink, log *zap.Logger) *Device {
	opts.defaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Device{opts: opts, sink: sink, log: log}
}

func (d *Device) init() error {
	d.initOnce.Do(func() {
		d.initErr = portaudio.Initialize()
	})
	return d.initErr
}

// Close releases PortAudio. Sessions and players must be closed first.
func (d *Device) Close() error {
	if d.init() != nil {
		return nil
	}
	return portaudio.Terminate()
}

func (d *Device) PermissionStatus(ctx context.Context) (recorder.Permission, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.perm, nil
}

// RequestPermission grants the microphone when it is allowed by configuration
// and a default input device exists. The answer sticks for the process.
func (d *Device) RequestPermission(ctx context.Context) (recorder.Permission, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.perm != recorder.PermissionUndetermined {
		return d.perm, nil
	}
	if !d.opts.AllowMicrophone {
		d.perm = recorder.PermissionDenied
		d.log.Info("microphone disabled by configuration")
		return d.perm, nil
	}
	if err := d.init(); err != nil {
		return recorder.PermissionUndetermined, err
	}
	dev, err := portaudio.DefaultInputDevice()
	if err != nil || dev == nil || dev.MaxInputChannels < 1 {
		d.perm = recorder.PermissionDenied
		d.log.Info("no usable input device", zap.Error(err))
		return d.perm, nil
	}
	d.perm = recorder.PermissionGranted
	d.log.Info("microphone granted", zap.String("device", dev.Name))
	return d.perm, nil
}

func (d *Device) SetAudioMode(ctx context.Context, mode recorder.AudioMode) error {
	d.mu.Lock()
	d.mode = mode
	d.mu.Unlock()
	return nil
}

func (d *Device) OpenCapture(ctx context.Context, onLevel recorder.LevelFunc) (recorder.Session, error) {
	d.mu.Lock()
	mode, perm := d.mode, d.perm
	d.mu.Unlock()

	if !mode.AllowsRecording {
		return nil, ErrRecordingNotAllowed
	}
	if perm != recorder.PermissionGranted {
		return nil, recorder.ErrPermissionDenied
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	id, path, err := d.sink.NewArtifactPath()
	if err != nil {
		return nil, fmt.Errorf("reserve artifact: %w", err)
	}
	return &capture{
		dev:     d,
		id:      id,
		path:    path,
		onLevel: onLevel,
	}, nil
}

func (d *Device) LoadPlayer(ctx context.Context, uri string) (recorder.Player, error) {
	if err := d.init(); err != nil {
		return nil, err
	}
	clip, err := ReadClip(uri)
	if err != nil {
		return nil, err
	}
	return newPlayer(clip, d.opts.FramesPerBuffer, d.log), nil
}

// Devices lists what PortAudio can see.
func (d *Device) Devices() ([]*portaudio.DeviceInfo, error) {
	if err := d.init(); err != nil {
		return nil, err
	}
	return portaudio.Devices()
}

type capture struct {
	dev     *Device
	id      string
	path    string
	onLevel recorder.LevelFunc

	mu      sync.Mutex
	stream  *portaudio.Stream
	samples []int16
	level   float64
	started time.Time
	stop    chan struct{}
	wg      sync.WaitGroup
}

func (c *capture) process(in []int16) {
	c.mu.Lock()
	c.samples = append(c.samples, in...)
	c.level = Level(in)
	c.mu.Unlock()
}

func (c *capture) Start(ctx context.Context) error {
	opts := c.dev.opts
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(opts.SampleRate), opts.FramesPerBuffer, c.process)
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}

	c.mu.Lock()
	c.stream = stream
	c.started = time.Now()
	c.stop = make(chan struct{})
	c.mu.Unlock()

	c.wg.Add(1)
	go c.meter(opts.MeterInterval)
	return nil
}

func (c *capture) meter(every time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			level := c.level
			c.mu.Unlock()
			if c.onLevel != nil {
				c.onLevel(level)
			}
		}
	}
}

func (c *capture) halt() error {
	c.mu.Lock()
	stream, stop := c.stream, c.stop
	c.stream, c.stop = nil, nil
	c.mu.Unlock()

	if stop != nil {
		close(stop)
		c.wg.Wait()
	}
	if stream == nil {
		return nil
	}
	err := stream.Stop()
	if cerr := stream.Close(); err == nil {
		err = cerr
	}
	return err
}

func (c *capture) Stop(ctx context.Context) (recorder.Artifact, error) {
	if err := c.halt(); err != nil {
		return recorder.Artifact{}, err
	}

	c.mu.Lock()
	samples, started := c.samples, c.started
	c.samples = nil
	c.mu.Unlock()

	rate := c.dev.opts.SampleRate
	if err := writeWAVFile(c.path, rate, samples); err != nil {
		return recorder.Artifact{}, fmt.Errorf("write %s: %w", c.path, err)
	}
	art := recorder.Artifact{
		ID:        c.id,
		URI:       c.path,
		CreatedAt: started,
		Duration:  time.Duration(len(samples)) * time.Second / time.Duration(rate),
	}
	c.dev.log.Debug("clip written", zap.String("path", c.path), zap.Int("samples", len(samples)))
	return art, nil
}

func (c *capture) Discard() error {
	err := c.halt()
	c.mu.Lock()
	c.samples = nil
	c.mu.Unlock()
	if rerr := os.Remove(c.path); rerr != nil && !os.IsNotExist(rerr) && err == nil {
		err = rerr
	}
	return err
}
