// Package pkg provides the core libraries of viewgrid, a compositor that
// shows one subject image in a grid of views.
//
// # Overview
//
// A view is one way of showing the subject: a raster image fetched from an
// image host (RGB, masks, heatmaps, scans) or a map centred on the subject's
// location. Views are arranged in named, ordered groups; the grid shows one
// group at a time, one tile per view. Every image view carries a contrast
// window shared by all tiles showing it.
//
// # Architecture
//
// The typical data flow through viewgrid:
//
//	config.toml + group store
//	         ↓
//	    [viewer] ShowGroup (resolve views, lay out tiles)
//	         ↓
//	    [viewport] one port per tile, layers from the [layer] registry
//	         ↓
//	    [source] fetch + decode, per-session futures
//	         ↓
//	    [contrast] + [filter] per-pixel remap
//	         ↓
//	    composite PNG/JPEG, JSON state
//
// # Main Packages
//
// ## Grid
//
// [viewer] - The manager that owns the grid: current group, ports, shared
// transform, contrast windows and filters. All mutation happens on its
// single-goroutine [viewer.Loop].
//
// [layout] - Tile size and placement for n tiles in a viewport at a fixed
// aspect ratio.
//
// [viewport] - One tile: its layer stack, the add/remove/select controls and
// the contrast widget.
//
// [layer] - Drawable layers (base, pixel, map) and the ordered registry of
// (predicate, constructor) pairs that decides which layers a view gets.
//
// ## Pixels
//
// [contrast] - Contrast windows, histograms, the lookup-table remap, the
// dual-handle slider and the histogram plot.
//
// [filter] - Global image filters (invert, brightness, saturation).
//
// [transform] - The 2-D affine transform shared by every pixel layer.
//
// ## Data
//
// [view] - View records, the view registry and ordered view groups.
//
// [session] - The bound subject image and its location.
//
// [source] - Image fetching over HTTP with caching, retry and cancellable
// per-session futures.
//
// [groupstore] - Persistence of view groups (file, redis, mongo).
//
// [cache] - Byte cache for fetched images (file, redis).
//
// ## Infrastructure
//
// [pipeline] - One-shot runs: config → manager → prefetch → composite →
// encode. Used by the render command.
//
// [config] - TOML configuration, defaults, validation and the file watcher.
//
// [errors] - Coded errors shared by every package and the HTTP API.
//
// [observability] - Hooks for layout, render, fetch and cache events.
//
// [httputil] - Retrying HTTP GETs.
//
// # Quick Start
//
//	loop := viewer.NewLoop(64)
//	go loop.Run(ctx)
//	m := viewer.New(loop, pipeline.ManagerOptions(cfg, fetcher, store, logger))
//	_ = loop.Do(ctx, func() error {
//	    m.SetImage("42", session.Location{Lat: 47.6, Lon: -122.3})
//	    return m.ShowGroup("default")
//	})
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/viewer/...   # Specific package
//	go test -run Example       # Examples only
package pkg
