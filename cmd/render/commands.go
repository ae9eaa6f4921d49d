package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"pipelined.dev/render/graph"
)

type peaksCmd struct {
	File string `arg:"" type:"existingfile" help:"Audio file"`
	Out  string `short:"o" help:"Peak file path, defaults to FILE.peaks"`
}

// Run builds the whole cache and saves it.
func (c *peaksCmd) Run(g *globals) error {
	doc, err := g.open(c.File, nil)
	if err != nil {
		return err
	}
	defer doc.Close()

	started := time.Now()
	if err := doc.Builder().Wait(); err != nil {
		return err
	}
	out := c.Out
	if out == "" {
		out = c.File + ".peaks"
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := doc.Peaks().Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("encode peaks: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	g.log.WithField("elapsed", time.Since(started)).Infof("peaks saved to %v", out)
	return nil
}

type playCmd struct {
	File string  `arg:"" type:"existingfile" help:"Audio file"`
	Loop bool    `help:"Repeat the file"`
	Gain float64 `default:"0.5" help:"Output gain parameter, 0.5 is unity"`
}

// Run plays the file until it ends or interrupt is received.
func (c *playCmd) Run(g *globals) error {
	doc, err := g.open(c.File, nil)
	if err != nil {
		return err
	}
	defer doc.Close()
	doc.SetLoop(c.Loop)
	doc.ProcessGraph().Output().SetParameter(graph.Gain, c.Gain)

	dev, err := g.playback(doc)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	doc.Play()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for doc.Playing() {
		select {
		case <-ctx.Done():
			doc.Pause()
		case <-ticker.C:
			g.log.Debug(position(doc))
		}
	}
	return shutdown(dev)
}

type bounceCmd struct {
	File    string  `arg:"" type:"existingfile" help:"Audio file"`
	Out     string  `arg:"" help:"Output wav or mp3 file"`
	Gain    float64 `default:"0.5" help:"Output gain parameter, 0.5 is unity"`
	BitRate int     `name:"bitrate" default:"192" help:"Mp3 bit rate"`
	Quality int     `default:"2" help:"Mp3 encoder quality"`
}

// Run renders the whole file through the graph.
func (c *bounceCmd) Run(g *globals) error {
	doc, err := g.open(c.File, nil)
	if err != nil {
		return err
	}
	defer doc.Close()
	doc.ProcessGraph().Output().SetParameter(graph.Gain, c.Gain)

	sink, err := newSink(c.Out, g.config.BitDepth, c.BitRate, c.Quality)
	if err != nil {
		return err
	}
	src := doc.Source()
	if err := sink.Open(src.SampleRate(), src.Channels()); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := doc.Bounce(ctx, sink); err != nil {
		sink.Close()
		return err
	}
	if err := sink.Close(); err != nil {
		return err
	}
	out := doc.ProcessGraph().Output()
	g.log.WithField("clipped", out.Clipped()).Infof("bounced to %v", c.Out)
	return nil
}
