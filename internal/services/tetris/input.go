package tetris

import (
	"math"
	"sync"

	"github.com/kamstrup/intmap"
)

// Action はプレイヤーの操作を表します。値はクライアントから送られるキーコードと一致します。
type Action int

const (
	ActionMoveLeft  Action = iota // 0: 左移動
	ActionMoveRight               // 1: 右移動
	ActionSoftDrop                // 2: ソフトドロップ
	ActionHardDrop                // 3: ハードドロップ
	ActionRotateCW                // 4: 時計回りに回転
	ActionRotateCCW               // 5: 反時計回りに回転
	ActionHold                    // 6: ホールド
	ActionPause                   // 7: 一時停止 / 再開
	ActionStart                   // 8: ゲーム開始
	ActionRestart                 // 9: リスタート
	actionCount
)

// ActionFromCode はキーコードを Action に変換します。未知のコードの場合は false を返します。
func ActionFromCode(code int) (Action, bool) {
	if code < 0 || code >= int(actionCount) {
		return 0, false
	}
	return Action(code), true
}

// InputEvent はバッファに積まれた1件の入力です。
// Blur が true の場合はフォーカス喪失を表し、Action と Down は使われません。
type InputEvent struct {
	Action Action
	Down   bool
	Blur   bool
}

// KeyState は1ティック内でのキーの状態です。
type KeyState struct {
	Pressed      bool // 現在押されている
	JustPressed  bool // このティック内に押された
	JustReleased bool // このティック内に離された
}

// InputFrame は Drain で取り出した1ティック分の入力です。
type InputFrame struct {
	Events []InputEvent
	keys   [actionCount]KeyState
}

// Pressed は a が押されたままかどうかを返します。
func (f InputFrame) Pressed(a Action) bool { return a < actionCount && f.keys[a].Pressed }

// JustPressed は a がこのティック内に押されたかどうかを返します。
func (f InputFrame) JustPressed(a Action) bool { return a < actionCount && f.keys[a].JustPressed }

// JustReleased は a がこのティック内に離されたかどうかを返します。
func (f InputFrame) JustReleased(a Action) bool { return a < actionCount && f.keys[a].JustReleased }

// InputBuffer はティックの間に届いた入力を貯めておくバッファです。
// KeyDown / KeyUp / Blur は別のゴルーチンから呼び出しても安全です。
type InputBuffer struct {
	mu     sync.Mutex
	events []InputEvent
	keys   *intmap.Map[Action, KeyState]
}

// NewInputBuffer は空の InputBuffer を返します。
func NewInputBuffer() *InputBuffer {
	return &InputBuffer{keys: intmap.New[Action, KeyState](int(actionCount))}
}

// KeyDown は a が押されたことを記録します。
// 横移動とソフトドロップは押しっぱなしの間の再送を無視し、それ以外の操作は毎回新しい入力として扱います。
func (b *InputBuffer) KeyDown(a Action) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, _ := b.keys.Get(a)
	if state.Pressed && isRepeatable(a) {
		return
	}
	state.Pressed = true
	state.JustPressed = true
	b.keys.Put(a, state)
	b.events = append(b.events, InputEvent{Action: a, Down: true})
}

// KeyUp は a が離されたことを記録します。押されていない場合は無視します。
func (b *InputBuffer) KeyUp(a Action) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, _ := b.keys.Get(a)
	if !state.Pressed {
		return
	}
	state.Pressed = false
	state.JustReleased = true
	b.keys.Put(a, state)
	b.events = append(b.events, InputEvent{Action: a, Down: false})
}

// Blur はフォーカス喪失を記録し、押されているすべてのキーを離した扱いにします。
func (b *InputBuffer) Blur() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for a := range actionCount {
		if state, ok := b.keys.Get(a); ok && state.Pressed {
			state.Pressed = false
			state.JustReleased = true
			b.keys.Put(a, state)
		}
	}
	b.events = append(b.events, InputEvent{Blur: true})
}

// Drain はこれまでに届いた入力を到着順に取り出し、JustPressed / JustReleased をクリアします。
func (b *InputBuffer) Drain() InputFrame {
	b.mu.Lock()
	defer b.mu.Unlock()

	frame := InputFrame{Events: b.events}
	b.events = nil
	for a, state := range b.keys.All() {
		frame.keys[a] = state
	}
	for a := range actionCount {
		if state, ok := b.keys.Get(a); ok && (state.JustPressed || state.JustReleased) {
			state.JustPressed = false
			state.JustReleased = false
			b.keys.Put(a, state)
		}
	}
	return frame
}

// Reset はすべての入力を破棄します。
func (b *InputBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = nil
	b.keys.Clear()
}

// repeatTimer は押しっぱなしのキー1つ分のリピート状態です。
type repeatTimer struct {
	held   float64 // 押し続けている時間 (ms)
	repeat float64 // 最後のリピートからの経過時間 (ms)
}

// repeatableActions は押しっぱなしでリピートする操作です。
var repeatableActions = [...]Action{ActionMoveLeft, ActionMoveRight, ActionSoftDrop}

func isRepeatable(a Action) bool {
	for _, r := range repeatableActions {
		if r == a {
			return true
		}
	}
	return false
}

// AutoShifter は横移動とソフトドロップの押しっぱなしによる自動リピート (DAS/ARR) を計算します。
// ソフトドロップは DAS / ARR ともに半分の時間でリピートします。
type AutoShifter struct {
	das, arr float64
	timers   [len(repeatableActions)]repeatTimer
}

// NewAutoShifter は DAS と ARR をミリ秒で指定して AutoShifter を返します。
func NewAutoShifter(dasMs, arrMs float64) *AutoShifter {
	return &AutoShifter{das: dasMs, arr: arrMs}
}

// Update は deltaMs だけ時間を進め、このティックでリピート発火する操作を返します。
// 最初の1回はキーが押された時点のイベントで処理されるため、ここでは返しません。
func (r *AutoShifter) Update(frame InputFrame, deltaMs float64) []Action {
	var fired []Action
	for i, a := range repeatableActions {
		t := &r.timers[i]
		if !frame.Pressed(a) || frame.JustPressed(a) {
			*t = repeatTimer{}
			if !frame.Pressed(a) {
				continue
			}
		}

		das, arr := r.das, r.arr
		if a == ActionSoftDrop {
			das /= 2
			arr /= 2
		}

		t.held += deltaMs
		if t.held < das {
			continue
		}
		t.repeat += deltaMs
		if t.repeat >= arr {
			t.repeat -= arr
			if t.repeat >= arr {
				// 1ティックで発火するのは1回だけ。余りは次のリピートに持ち越す
				t.repeat = math.Mod(t.repeat, arr)
			}
			fired = append(fired, a)
		}
	}
	return fired
}

// Reset はすべてのリピート状態を初期化します。
func (r *AutoShifter) Reset() {
	r.timers = [len(repeatableActions)]repeatTimer{}
}
