package fbxtok

import (
	"encoding/binary"
	"testing"

	"github.com/assetforge/sceneforge/asserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scopeBuilder assembles one scope record's bytes, back-patching its
// end_offset once children and the sentinel are known, mirroring how a
// real exporter would lay out the file.
type scopeBuilder struct {
	startOffset int64
	buf         []byte
}

func newScopeBuilder(startOffset int64, name string, props [][]byte) *scopeBuilder {
	b := &scopeBuilder{startOffset: startOffset}
	b.buf = append(b.buf, make([]byte, 12)...) // placeholder end_offset/prop_count/prop_length
	b.buf = append(b.buf, byte(len(name)))
	b.buf = append(b.buf, []byte(name)...)
	propStart := len(b.buf)
	for _, p := range props {
		b.buf = append(b.buf, p...)
	}
	propLen := len(b.buf) - propStart
	binary.LittleEndian.PutUint32(b.buf[4:], uint32(len(props)))
	binary.LittleEndian.PutUint32(b.buf[8:], uint32(propLen))
	return b
}

func (b *scopeBuilder) addChildBytes(child []byte) {
	b.buf = append(b.buf, child...)
}

func (b *scopeBuilder) finish() []byte {
	b.buf = append(b.buf, make([]byte, 13)...) // zero sentinel
	endOffset := b.startOffset + int64(len(b.buf))
	binary.LittleEndian.PutUint32(b.buf[0:], uint32(endOffset))
	return b.buf
}

func i32Prop(v int32) []byte {
	p := make([]byte, 5)
	p[0] = 'I'
	binary.LittleEndian.PutUint32(p[1:], uint32(v))
	return p
}

func header() []byte {
	h := make([]byte, headerLen)
	copy(h, Magic)
	return h
}

func footer() []byte {
	return make([]byte, 13) // end_offset==0 sentinel record prefix, enough to read a zero u32
}

func TestTokenizeSimpleScopeNoChildren(t *testing.T) {
	data := header()
	scope := newScopeBuilder(int64(len(data)), "Creator", [][]byte{i32Prop(7)}).finish()
	data = append(data, scope...)
	data = append(data, footer()...)

	toks, err := Tokenize(data)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, KEY, toks[0].Type)
	assert.Equal(t, "Creator", toks[0].Name)
	assert.Equal(t, DATA, toks[1].Type)
	assert.Equal(t, byte('I'), toks[1].PropType)
	assert.Equal(t, int32(7), int32(binary.LittleEndian.Uint32(toks[1].Payload)))
}

func TestTokenizeNestedScope(t *testing.T) {
	data := header()
	base := int64(len(data))

	// Child scope bytes are computed first so the parent can embed them.
	childStart := base + 12 + 1 + len("Objects") // after parent header+name, before prop block (prop_length==0)
	child := newScopeBuilder(childStart, "Model", [][]byte{i32Prop(1), i32Prop(2)}).finish()

	parent := newScopeBuilder(base, "Objects", nil)
	parent.addChildBytes(child)
	parentBytes := parent.finish()

	data = append(data, parentBytes...)
	data = append(data, footer()...)

	toks, err := Tokenize(data)
	require.NoError(t, err)

	var types []TokenType
	for _, tk := range toks {
		types = append(types, tk.Type)
	}
	assert.Equal(t, []TokenType{KEY, OpenBracket, KEY, DATA, COMMA, DATA, CloseBracket}, types)
	assert.Equal(t, "Objects", toks[0].Name)
	assert.Equal(t, "Model", toks[2].Name)
}

func TestTokenizeRejectsBadMagic(t *testing.T) {
	data := make([]byte, headerLen+4)
	_, err := Tokenize(data)
	require.Error(t, err)
	k, ok := asserr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, asserr.MalformedInput, k)
}

func TestTokenizeRejectsShortInput(t *testing.T) {
	_, err := Tokenize([]byte("short"))
	require.Error(t, err)
}

func TestTokenizeRejectsNonZeroSentinel(t *testing.T) {
	data := header()
	scope := newScopeBuilder(int64(len(data)), "Creator", [][]byte{i32Prop(7)}).finish()
	// Corrupt one byte of the 13-byte sentinel.
	scope[len(scope)-5] = 0xFF
	data = append(data, scope...)
	data = append(data, footer()...)

	_, err := Tokenize(data)
	require.Error(t, err)
	k, ok := asserr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, asserr.MalformedInput, k)
}

func TestTokenizeArrayStrideMismatchFails(t *testing.T) {
	data := header()
	// 'i' array: count=2, encoding=0, comp_len=4 (should be 8 for 2 i32s).
	arr := make([]byte, 1+12)
	arr[0] = 'i'
	binary.LittleEndian.PutUint32(arr[1:], 2)
	binary.LittleEndian.PutUint32(arr[5:], 0)
	binary.LittleEndian.PutUint32(arr[9:], 4)
	scope := newScopeBuilder(int64(len(data)), "Bad", [][]byte{arr}).finish()
	data = append(data, scope...)
	data = append(data, footer()...)

	_, err := Tokenize(data)
	require.Error(t, err)
}

func TestTokenizeToleratesUnrecognisedArrayCodeB(t *testing.T) {
	data := header()
	arr := make([]byte, 1+12+4)
	arr[0] = 'b'
	binary.LittleEndian.PutUint32(arr[1:], 4)
	binary.LittleEndian.PutUint32(arr[5:], 0)
	binary.LittleEndian.PutUint32(arr[9:], 4)
	scope := newScopeBuilder(int64(len(data)), "Flags", [][]byte{arr}).finish()
	data = append(data, scope...)
	data = append(data, footer()...)

	toks, err := Tokenize(data)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, byte('b'), toks[1].PropType)
	assert.Len(t, toks[1].Payload, 4)
}
