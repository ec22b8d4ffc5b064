// Package contrast implements per-view contrast windowing.
//
// # Overview
//
// A contrast [Window] is the [Min, Max] intensity range that gets stretched
// to the full display range [0, 255] for one view. Windows are kept in a
// [Store] keyed by view name together with the histogram of the view's
// original pixel distribution.
//
// Per view the state moves through:
//
//	no histogram
//	    │ first successful image decode
//	    ▼
//	histogram cached, window [0, 255]
//	    │ slider interaction
//	    ▼
//	histogram cached, window [min, max]   (until the image is reloaded)
//
// The histogram is computed once per image load and is never recomputed when
// the window changes, so the plot always shows the unwindowed distribution.
//
// # Remapping
//
// [Apply] clamps every RGB channel to the window and rescales linearly:
//
//	out = round((clamp(v, min, max) - min) / (max - min) × 255)
//
// The transform is the identity for the default window [0, 255].
//
// # Interactive Adjustment
//
// [Slider] models the dual-handle range control: two overlapping handles on
// one track where the handle nearer to the pointer takes the gesture, and
// min can never overtake max.
package contrast
