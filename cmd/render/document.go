package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"pipelined.dev/render"
	"pipelined.dev/render/device"
	"pipelined.dev/render/mp3"
	"pipelined.dev/render/source"
	"pipelined.dev/render/wav"
)

var errUnknownExtension = errors.New("unknown file extension")

// fileSink is a document sink backed by a file.
type fileSink interface {
	render.Sink
	Open(sampleRate, numChannels int) error
	Close() error
}

// load decodes the file by its extension.
func load(path string) (*source.Track, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return wav.Load(path)
	case ".mp3":
		return mp3.Load(path)
	}
	return nil, fmt.Errorf("%w: %v", errUnknownExtension, path)
}

// newSink creates sink by the extension of path.
func newSink(path string, bitDepth, bitRate, quality int) (fileSink, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		s, err := wav.NewSink(path, bitDepth)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ".mp3":
		s, err := mp3.NewSink(path, bitRate, quality)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %v", errUnknownExtension, path)
}

// open loads the file and opens a document configured by globals.
func (g *globals) open(path string, notify func()) (*render.Document, error) {
	track, err := load(path)
	if err != nil {
		return nil, err
	}
	cfg := g.config
	opts := []render.Option{
		render.WithBlockSize(cfg.BlockSize),
		render.WithMipLevels(cfg.MipLevels),
		render.WithChunkFrames(cfg.ChunkFrames),
		render.WithVU(cfg.VUFalloffMs, cfg.VUPeak),
		render.WithLogger(g.log),
	}
	if notify != nil {
		opts = append(opts, render.WithNotify(cfg.NotifyEvery, notify))
	}
	g.log.WithField("file", path).Debugf("loaded %d frames", track.Frames())
	return render.Open(track, opts...)
}

// backend returns configured device backend.
func (g *globals) backend() (device.Backend, error) {
	switch g.config.Backend {
	case "oto":
		return device.NewOto(0), nil
	case "portaudio":
		return device.NewPortAudio(g.config.BlockSize), nil
	case "null":
		return device.NewNull(g.config.BlockSize, 0), nil
	}
	return nil, fmt.Errorf("unknown backend %q", g.config.Backend)
}

// playback starts device context streaming the document.
func (g *globals) playback(doc *render.Document) (*device.Context, error) {
	b, err := g.backend()
	if err != nil {
		return nil, err
	}
	ctx := device.New(b, device.WithLogger(g.log))
	src := doc.Source()
	format, err := ctx.Init(g.config.Format(src.Channels(), src.SampleRate()))
	if err != nil {
		return nil, err
	}
	adapter, err := doc.Stream(format)
	if err != nil {
		ctx.Close()
		return nil, err
	}
	if err := ctx.Start(adapter); err != nil {
		ctx.Close()
		return nil, err
	}
	g.log.WithField("format", format.String()).Info("playback started")
	return ctx, nil
}

// shutdown stops and releases device context.
func shutdown(ctx *device.Context) error {
	if ctx.State() == device.Running || ctx.State() == device.Suspended {
		if err := ctx.Stop(); err != nil {
			return err
		}
	}
	return ctx.Close()
}

// position formats document position as m:ss.
func position(doc *render.Document) string {
	return fmt.Sprintf("%s / %s", clock(doc.Position().Seconds()), clock(doc.Duration().Seconds()))
}

func clock(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// frames returns number of frames in seconds.
func frames(sampleRate int, seconds float64) int {
	return int(seconds * float64(sampleRate))
}
