package render

// List is a recorded sequence of Context commands. Replaying a list has
// the same effect as issuing its commands directly.
type List struct {
	cmds []func(*Context)
}

// Len returns the number of recorded commands.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.cmds)
}

// NewList starts recording. Until EndList, commands are stored and not
// executed. Starting a new list while recording discards the old one.
func (c *Context) NewList() {
	c.rec = &List{}
}

// EndList stops recording and returns the list. It returns nil when no
// list was being recorded.
func (c *Context) EndList() *List {
	l := c.rec
	c.rec = nil
	return l
}

// CallList replays l. While recording, the call itself is recorded.
func (c *Context) CallList(l *List) {
	if l == nil {
		return
	}
	if c.recording(func(c *Context) { c.CallList(l) }) {
		return
	}
	for _, cmd := range l.cmds {
		cmd(c)
	}
}

// recording stores cmd and reports true when a list is being recorded.
func (c *Context) recording(cmd func(*Context)) bool {
	if c.rec == nil {
		return false
	}
	c.rec.cmds = append(c.rec.cmds, cmd)
	return true
}
