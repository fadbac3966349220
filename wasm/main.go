//go:build wasm

package main

import (
	"syscall/js"
)

func main() {
	// Export functions to JavaScript
	js.Global().Set("AutogroupNewResolver", js.FuncOf(newResolver))
	js.Global().Set("AutogroupResolve", js.FuncOf(resolve))
	js.Global().Set("AutogroupResolveBatch", js.FuncOf(resolveBatch))
	js.Global().Set("AutogroupCloseResolver", js.FuncOf(closeResolver))
	js.Global().Set("AutogroupSuggest", js.FuncOf(suggestPatterns))
	js.Global().Set("AutogroupDecode", js.FuncOf(decode))
	js.Global().Set("AutogroupEncode", js.FuncOf(encode))

	// Keep WASM running
	<-make(chan struct{})
}
