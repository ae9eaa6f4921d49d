/*
Package render plays and renders audio documents.

Concept

A document is a single source of frames together with everything needed
to show and hear it:

    Source - ordered segments of frames with a playback cursor;
    Peaks - multi-resolution min/max cache used to draw the waveform;
    Graph - processing nodes that turn the source into output blocks.

Peaks are built in the background by a single builder goroutine when the
document is opened. The cache is append-only, so the waveform can be drawn
progressively while the build is in progress. Builder notifications tell
when it's worth redrawing.

Execution contexts

There are three contexts that touch a document:

    control - opens and closes documents, edits parameters, moves transport;
    builder - fills the peak cache;
    audio - pulls the stream adapter, which processes the graph.

The audio context never blocks: no allocation, no locks and no file I/O.
Parameters are atomic and can be set from control at any time. Other
changes are either pushed to the graph as mutations, applied at the next
block boundary, or done between graph Suspend and Resume calls.

Streaming

Document.Stream returns an adapter that serves the rendered graph as bytes
of a negotiated format. The adapter is handed over to a device context
that owns the audio output:

    doc, err := render.Open(track)
    ...
    ctx := device.New(device.NewOto(0))
    format, err := ctx.Init(stream.Default(track.Channels(), track.SampleRate()))
    ...
    adapter, err := doc.Stream(format)
    ...
    err = ctx.Start(adapter)
    doc.Play()

Offline rendering is done with Document.Bounce, which processes the graph
block by block into a sink until the source stops playing.
*/
package render
