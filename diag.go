//----------------------------------------------------------------------
// This file is part of srvweb.
// Copyright (C) 2025-present Bernd Fix   >Y<
//
// srvweb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// srvweb is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later
//----------------------------------------------------------------------

package srvweb

import (
	"errors"
	"net"
	"strings"
	"time"

	"git.sr.ht/~moody/ninep"
)

// Error messages
var (
	errNoRoot = errors.New("no root directory")
	errNoFile = errors.New("no such file or directory")
	errNoDir  = errors.New("not a directory")
	errIsDir  = errors.New("is a directory")
	errNoAbs  = errors.New("no absolute path")
	errExists = errors.New("entry already exists")
)

//----------------------------------------------------------------------

// File interface for file handler implementations:
// The interface methods are called by the 9p protocol handler on demand.
// The implementation is free to handle the read/write calls according
// to its own logic.
type File interface {
	Read() ([]byte, error)
	Write([]byte) error
}

// NopFile ignores all read/write requests
type NopFile struct{}

// Read returns emtpy file
func (f *NopFile) Read() (data []byte, err error) {
	return
}

// Write to file is ignored
func (f *NopFile) Write([]byte) (err error) {
	return
}

// TextFile with (small) static text content.
type TextFile struct {
	NopFile
	body string
}

// NewTextFile with given text content.
func NewTextFile(content string) *TextFile {
	return &TextFile{
		body: content,
	}
}

// Read implementation: return file content.
func (f *TextFile) Read() ([]byte, error) {
	return []byte(f.body), nil
}

// FuncFile content is computed on every read.
type FuncFile struct {
	NopFile
	fcn func() ([]byte, error)
}

// NewFuncFile with specified function.
func NewFuncFile(fcn func() ([]byte, error)) *FuncFile {
	return &FuncFile{
		fcn: fcn,
	}
}

// Read implementation: return file content.
func (f *FuncFile) Read() ([]byte, error) {
	return f.fcn()
}

//----------------------------------------------------------------------

// Entry in the filesystem
type Entry struct {
	ref      *ninep.Dir        // 9p reference
	children map[string]*Entry // list of children (for folders) or nil
	file     File              // file implementation or nil (for folders)
}

// IsDir returns true if entry is a directory
func (e *Entry) IsDir() bool {
	return e.children != nil
}

//----------------------------------------------------------------------

// Namespace is a synthetic filesystem served over 9p. Entries are
// addressed by absolute slash-separated paths. Build the tree before
// serving; it is read-only afterwards.
type Namespace struct {
	ninep.NopFS                   // use default handlers where needed
	dict        map[uint64]*Entry // map Qid.Path to filesystem entry
	nextId      uint64            // next entry identifier
	user, group string            // owner of all entries
}

// NewNamespace creates a new filesystem (with root directory) owned by
// the given user/group.
func NewNamespace(user, group string) *Namespace {
	ns := new(Namespace)
	ns.dict = make(map[uint64]*Entry)
	ns.user = user
	ns.group = group
	e := ns.newEntry("/", 0555, nil)
	ns.dict[e.ref.Path] = e
	return ns
}

// Create a new entry in the filesystem.
// If impl is nil, the entry represents a directory; otherwise a file.
func (ns *Namespace) newEntry(name string, perm uint32, impl File) *Entry {
	e := new(Entry)
	kind := ninep.QTFile
	if impl == nil {
		kind = ninep.QTDir
		e.children = make(map[string]*Entry)
		perm |= ninep.DMDir
	} else {
		e.file = impl
	}
	id := ns.nextId
	ns.nextId++
	e.ref = &ninep.Dir{
		Qid: ninep.Qid{
			Path: id,
			Vers: 0,
			Type: byte(kind),
		},
		Name: name,
		Mode: perm,
		Uid:  ns.user,
		Gid:  ns.group,
		Muid: ns.user,
	}
	return e
}

// NewDir creates a directory at the given path. The parent directory
// must exist.
func (ns *Namespace) NewDir(path string, perm uint32) error {
	return ns.insert(path, perm, nil)
}

// NewFile creates a file at the given path, backed by the handler impl.
// The parent directory must exist.
func (ns *Namespace) NewFile(path string, perm uint32, impl File) error {
	if impl == nil {
		impl = new(NopFile)
	}
	return ns.insert(path, perm, impl)
}

// insert an entry below its parent directory.
func (ns *Namespace) insert(path string, perm uint32, impl File) error {
	dir, name, ok := splitPath(path)
	if !ok {
		return errNoAbs
	}
	parent, err := ns.Get(dir)
	if err != nil {
		return err
	}
	if !parent.IsDir() {
		return errNoDir
	}
	if _, ok := parent.children[name]; ok {
		return errExists
	}
	e := ns.newEntry(name, perm, impl)
	parent.children[name] = e
	ns.dict[e.ref.Path] = e
	return nil
}

// splitPath splits an absolute path into parent directory and entry
// name.
func splitPath(path string) (dir, name string, ok bool) {
	if len(path) < 2 || path[0] != '/' {
		return
	}
	i := strings.LastIndexByte(path, '/')
	if dir, name = path[:i], path[i+1:]; len(name) == 0 {
		return
	}
	if len(dir) == 0 {
		dir = "/"
	}
	return dir, name, true
}

// Root returns the entry of the root directory
func (ns *Namespace) Root() *Entry {
	return ns.dict[0]
}

// Get entry with given path
func (ns *Namespace) Get(path string) (*Entry, error) {
	if len(path) == 0 || path[0] != '/' {
		return nil, errNoAbs
	}
	curr := ns.Root()
	for _, label := range strings.Split(path[1:], "/") {
		if len(label) == 0 {
			continue
		}
		if curr.children == nil {
			return nil, errNoDir
		}
		qid := ns.Walk(&curr.ref.Qid, label)
		if qid == nil {
			return nil, errNoFile
		}
		e, ok := ns.dict[qid.Path]
		if !ok {
			return nil, errNoFile
		}
		curr = e
	}
	return curr, nil
}

// ReadFile returns the content of the file at the given path.
func (ns *Namespace) ReadFile(path string) ([]byte, error) {
	e, err := ns.Get(path)
	if err != nil {
		return nil, err
	}
	if e.IsDir() {
		return nil, errIsDir
	}
	return e.file.Read()
}

// Serve the 9p protocol on the given listener until it fails. Every
// connection gets its own protocol handler and a transport guard; a
// dropped session never takes the process down.
func (ns *Namespace) Serve(lst net.Listener) error {
	for {
		c, err := lst.Accept()
		if err != nil {
			return err
		}
		srv := ninep.NewSrv(func() ninep.FS { return ns })
		g := &sessionGuard{conn: c}
		go srv.ServeIO(g, g)
	}
}

// sessionGuard carries one diagnostics session. The 9p library treats
// any transport error as fatal to the whole process, and a dropped
// client is routine here; the first error closes the session and parks
// its protocol loops instead of surfacing the error.
type sessionGuard struct {
	conn net.Conn
}

// Read from the session. A buffered tail is delivered first; the error
// itself never surfaces.
func (g *sessionGuard) Read(p []byte) (int, error) {
	n, err := g.conn.Read(p)
	if err != nil && n == 0 {
		g.park()
	}
	return n, nil
}

// Write to the session. Errors never surface.
func (g *sessionGuard) Write(p []byte) (int, error) {
	if _, err := g.conn.Write(p); err != nil {
		g.park()
	}
	return len(p), nil
}

// park closes the connection and blocks the calling loop for good.
func (g *sessionGuard) park() {
	g.conn.Close()
	select {}
}

// ninep FS implementation

// Attach to 9p session
func (ns *Namespace) Attach(t *ninep.Tattach) {
	if e, ok := ns.dict[0]; ok {
		t.Respond(&e.ref.Qid)
	} else {
		t.Err(errNoRoot)
	}
}

// Walk to child entry with name "next".
func (ns *Namespace) Walk(cur *ninep.Qid, next string) *ninep.Qid {
	e := ns.dict[cur.Path]
	for _, c := range e.children {
		if c.ref.Name == next {
			return &c.ref.Qid
		}
	}
	return nil
}

// Open entry for file operation
func (ns *Namespace) Open(t *ninep.Topen, q *ninep.Qid) {
	t.Respond(q, 8192)
}

// Read from entry. Either return the content of a file
// or the listing from a directory.
func (ns *Namespace) Read(t *ninep.Tread, q *ninep.Qid) {
	e, ok := ns.dict[q.Path]
	if !ok {
		t.Err(errNoFile)
		return
	}
	if e.children != nil {
		var kids []ninep.Dir
		for _, c := range e.children {
			kids = append(kids, *c.ref)
		}
		ninep.ReadDir(t, kids)
		return
	}
	data, err := e.file.Read()
	if err != nil {
		t.Err(err)
	} else {
		ninep.ReadBuf(t, data)
	}
}

// Stat returns information for a filesytem entry.
func (ns *Namespace) Stat(t *ninep.Tstat, q *ninep.Qid) {
	e, ok := ns.dict[q.Path]
	if !ok {
		t.Err(errNoFile)
	} else {
		t.Respond(e.ref)
	}
}

//----------------------------------------------------------------------

// DiagTree builds the diagnostics namespace for an operational link:
// network facts under /net, process state under /sys. Mount it with
// any 9p client to inspect the device.
func DiagTree(link *Link, state *Status, started time.Time, version string) (ns *Namespace, err error) {
	ns = NewNamespace("sys", "sys")
	if err = ns.NewDir("/net", 0555); err != nil {
		return
	}
	if err = ns.NewFile("/net/ssid", 0444, NewTextFile(link.SSID()+"\n")); err != nil {
		return
	}
	if err = ns.NewFile("/net/mode", 0444, NewTextFile(link.Mode().String()+"\n")); err != nil {
		return
	}
	addr := "none\n"
	if link.Addr().IsValid() {
		addr = link.Addr().String() + "\n"
	}
	if err = ns.NewFile("/net/addr", 0444, NewTextFile(addr)); err != nil {
		return
	}
	if err = ns.NewFile("/net/phase", 0444, NewFuncFile(
		func() ([]byte, error) {
			return []byte(link.Phase().String() + "\n"), nil
		},
	)); err != nil {
		return
	}
	if err = ns.NewDir("/sys", 0555); err != nil {
		return
	}
	if err = ns.NewFile("/sys/status", 0444, NewFuncFile(
		func() ([]byte, error) {
			code, _ := state.Get()
			return []byte(StatusText(code) + "\n"), nil
		},
	)); err != nil {
		return
	}
	if err = ns.NewFile("/sys/uptime", 0444, NewFuncFile(
		func() ([]byte, error) {
			return []byte(time.Since(started).Round(time.Second).String() + "\n"), nil
		},
	)); err != nil {
		return
	}
	err = ns.NewFile("/sys/version", 0444, NewTextFile(version+"\n"))
	return
}
