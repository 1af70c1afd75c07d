//go:build gui

package gui

import (
	_ "embed"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/go-gl/glfw/v3.3/glfw"
)

//go:embed assets/tray.png
var trayIcon []byte

// App is the frameless level overlay shown near the bottom of the
// screen while a dictation session is open. It receives the same
// pipeline events as the terminal UI.
type App struct {
	fyneApp fyne.App
	window  fyne.Window
	wave    *WaveWidget
	onReady func()
	posX    int
	posY    int
}

func NewApp(onReady func()) *App {
	return &App{onReady: onReady}
}

func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.murmur.app")
	a.fyneApp.Settings().SetTheme(&darkTheme{})

	if desk, ok := a.fyneApp.(desktop.App); ok {
		icon := fyne.NewStaticResource("tray.png", trayIcon)
		menu := fyne.NewMenu("murmur",
			fyne.NewMenuItem("Quit", func() {
				a.fyneApp.Quit()
			}),
		)
		desk.SetSystemTrayMenu(menu)
		desk.SetSystemTrayIcon(icon)
	}

	var screenW, screenH int
	monitor := glfw.GetPrimaryMonitor()
	if monitor != nil {
		_, _, screenW, screenH = monitor.GetWorkarea()
	} else {
		screenW, screenH = 1920, 1080 // fallback
	}

	// Frameless splash window so the overlay has no decorations.
	if drv, ok := a.fyneApp.Driver().(desktop.Driver); ok {
		a.window = drv.CreateSplashWindow()
	} else {
		a.window = a.fyneApp.NewWindow("murmur")
	}

	a.wave = NewWaveWidget()
	a.window.SetContent(a.wave)
	a.window.SetFixedSize(true)
	a.window.SetPadded(false)

	size := a.wave.MinSize()
	a.window.Resize(size)

	// Bottom center, clear of the dock.
	a.posX = (screenW - int(size.Width)) / 2
	a.posY = screenH - int(size.Height) - 24

	go a.onReady()

	// The loop runs with the window hidden until RecordingStart.
	a.fyneApp.Run()
	return nil
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		a.fyneApp.Quit()
	}
}

func (a *App) Show() {
	fyne.Do(func() {
		if a.window == nil {
			return
		}
		// The overlay must not steal focus from the app being
		// dictated into; set GLFW attributes before the window maps.
		if win := glfw.GetCurrentContext(); win != nil {
			win.SetPos(a.posX, a.posY)
			win.SetAttrib(glfw.FocusOnShow, glfw.False)
			win.SetAttrib(glfw.Floating, glfw.True)
			win.Show()
			return
		}
		a.window.Show()
	})
}

func (a *App) Hide() {
	fyne.Do(func() {
		if a.window != nil {
			a.window.Hide()
		}
	})
}

// Event sink implementation. Widget setters take their own lock, so no
// fyne.Do is needed here.

func (a *App) RecordingStart() {
	a.wave.SetRecording(true)
	a.Show()
}

func (a *App) RecordingStop() {
	a.wave.SetRecording(false)
	a.wave.SetDecoding(true)
}

func (a *App) RecordingTick(float64) {}

func (a *App) AudioLevel(level float64) {
	a.wave.SetLevel(level)
}

func (a *App) NoVoiceWarning(on bool) {
	a.wave.SetNoVoice(on)
}

// Partial has no surface in the overlay.
func (a *App) Partial(string) {}

func (a *App) Transcript(string, string, bool) {
	a.wave.stopDecode()
	a.wave.SetNoVoice(false)
	a.Hide()
}

func (a *App) EngineState(string) {}
func (a *App) DeviceLine(string)  {}

// Notice carries no text here; it only matters as the end-of-session
// signal when a decode fails and no Transcript follows.
func (a *App) Notice(string) {
	if a.wave.stopDecode() {
		a.Hide()
	}
}
