package gui

import (
	"github.com/okapilab/gitlanes/internal/git"
	"github.com/okapilab/gitlanes/internal/graph"
	"github.com/okapilab/gitlanes/internal/refresh"
)

type Controller struct {
	provider *git.Provider
	coord    *refresh.Coordinator

	cfg   controllerConfig
	repo  controllerRepo
	theme controllerTheme
	data  controllerData

	ui appWidgets

	state controllerState
}

type controllerConfig struct {
	batch                int
	autoRefreshRequested bool
	syntaxHighlight      bool
	verbose              bool
}

type controllerRepo struct {
	path    string
	headRef string
	head    string
}

type controllerTheme struct {
	pref    ThemePreference
	palette colorPalette
	lanes   graph.Palette
}

type controllerData struct {
	rows []graph.ItemViewModel
}

type controllerState struct {
	tree      treeState
	diff      diffState
	selection selectionState
	canvas    canvasState
	watch     autoRefreshState
}
