package jsonmarker

import "github.com/digitallysavvy/toolprotocol/pkg/toolprotocol"

func (sp *streamParser) emitText(emit *[]toolprotocol.StreamEvent, text string) {
	if text == "" {
		return
	}
	if !sp.textOpen {
		sp.textID = sp.p.idGen()
		*emit = append(*emit, toolprotocol.TextStartEvent(sp.textID))
		sp.textOpen = true
	}
	*emit = append(*emit, toolprotocol.TextDeltaEvent(sp.textID, text))
}

func (sp *streamParser) closeTextRegion(emit *[]toolprotocol.StreamEvent) {
	if sp.textOpen {
		*emit = append(*emit, toolprotocol.TextEndEvent(sp.textID))
		sp.textOpen = false
	}
}
