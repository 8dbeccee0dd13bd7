// Package ui is the terminal front end of moor, built on bubbletea.
//
// The model renders three entity lists (containers, images, volumes) and a
// detail pane: the log of the selected container, the layer history of the
// selected image, or the details of the selected volume, depending on focus.
// It holds no dashboard state of its own. Every selection, filter and
// pause change is sent to the Engine, and the model re-reads the engine's
// state whenever Changes fires.
//
// Keys:
//
//	tab / shift+tab   cycle panes
//	j / k             move the selection, or scroll the log pane
//	f                 edit the selected container's log filter
//	enter / esc       apply / clear the filter
//	p / r             pause / resume the log
//	q, ctrl+c         quit
package ui
