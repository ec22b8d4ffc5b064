// Package viewport implements one tile of the grid.
//
// A [Port] shows one view. It owns an ordered stack of layers (the first
// added is drawn first, with z-index 1), forwards geometry and location
// changes to them, and carries the per-tile controls:
//
//	┌──────────────────────────────────┐
//	│ [select view ▾]        [-] [+]   │  select: left 10, top 10, 130 wide
//	│                                  │  remove: right 50, top 10
//	│  description                     │  add:    right 10, top 10
//	│                                  │
//	│          ┌ contrast ─────────┐   │  image views only
//	│          │ histogram plot    │   │
//	│          │ ●━━━━━━━━━━━━━●   │   │
//	│          │     50 - 200      │   │
//	│          └───────────────────┘   │
//	└──────────────────────────────────┘
//
// Control events ([Port.ClickAdd], [Port.ClickRemove], [Port.Select] and the
// slider gestures) are delegated to the [Host], normally the view manager.
package viewport
