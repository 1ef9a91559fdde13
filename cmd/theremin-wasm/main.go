//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"
	"time"
	"unsafe"

	"github.com/cwbudde/algo-theremin/theremin"
)

const maxBlockFrames = 128

var (
	globalTheremin *theremin.Theremin
	outputBuffer   []float32
)

func main() {
	// Keep program running
	c := make(chan struct{})

	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmInitAudio", js.FuncOf(wasmInitAudio))
	js.Global().Set("wasmHandleResults", js.FuncOf(wasmHandleResults))
	js.Global().Set("wasmDisplay", js.FuncOf(wasmDisplay))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	println("WASM theremin module loaded")
	<-c
}

func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	sampleRate := args[0].Int()
	globalTheremin = theremin.NewTheremin(sampleRate, theremin.NewDefaultParams())
	outputBuffer = make([]float32, maxBlockFrames*2)
	println("Theremin created at", sampleRate, "Hz")
	return nil
}

// wasmInitAudio is called from the first user gesture, after the browser
// allows the AudioContext to start.
func wasmInitAudio(this js.Value, args []js.Value) interface{} {
	if globalTheremin == nil {
		return false
	}
	if err := globalTheremin.InitAudio(); err != nil {
		println("Audio init failed:", err.Error())
		return false
	}
	return true
}

// wasmHandleResults takes the tracker result as a JSON string:
// [{"label":"Left","landmarks":[{"x":..,"y":..}, ...]}, ...]
func wasmHandleResults(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalTheremin == nil {
		return nil
	}
	var hands []theremin.TrackedHand
	if err := json.Unmarshal([]byte(args[0].String()), &hands); err != nil {
		println("Bad tracker result:", err.Error())
		return nil
	}
	globalTheremin.HandleResults(hands, time.Now())
	return nil
}

func wasmDisplay(this js.Value, args []js.Value) interface{} {
	if globalTheremin == nil {
		return nil
	}
	b, err := json.Marshal(globalTheremin.Display())
	if err != nil {
		return nil
	}
	return string(b)
}

func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalTheremin == nil {
		return 0
	}

	numFrames := args[0].Int()
	if numFrames > maxBlockFrames {
		numFrames = maxBlockFrames
	}

	output := globalTheremin.Process(numFrames)
	copy(outputBuffer, output)

	// Return pointer to buffer in WASM linear memory
	ptr := &outputBuffer[0]
	return js.ValueOf(uintptr(unsafe.Pointer(ptr)))
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) interface{} {
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}
