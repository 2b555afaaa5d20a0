//go:build linux && cgo

package glx

/*
#cgo linux pkg-config: x11 gl

#include <stdlib.h>
#include <X11/Xlib.h>
#include <X11/Xutil.h>
#include <GL/glx.h>

typedef void (*glaze_tex_image_fn)(Display *, GLXDrawable, int, const int *);

static glaze_tex_image_fn glaze_bind_fn;
static glaze_tex_image_fn glaze_release_fn;

static int glaze_last_error;

static int glaze_error_handler(Display *dpy, XErrorEvent *ev) {
	(void)dpy;
	glaze_last_error = ev->error_code;
	return 0;
}

static void glaze_install_error_handler(void) {
	XSetErrorHandler(glaze_error_handler);
}

static int glaze_take_error(Display *dpy) {
	XSync(dpy, False);
	int code = glaze_last_error;
	glaze_last_error = 0;
	return code;
}

static int glaze_load_tex_image(void) {
	glaze_bind_fn = (glaze_tex_image_fn)glXGetProcAddress((const GLubyte *)"glXBindTexImageEXT");
	glaze_release_fn = (glaze_tex_image_fn)glXGetProcAddress((const GLubyte *)"glXReleaseTexImageEXT");
	return glaze_bind_fn != NULL && glaze_release_fn != NULL;
}

static void glaze_bind_tex_image(Display *dpy, GLXDrawable d, int buffer) {
	glaze_bind_fn(dpy, d, buffer, NULL);
}

static void glaze_release_tex_image(Display *dpy, GLXDrawable d, int buffer) {
	glaze_release_fn(dpy, d, buffer, NULL);
}

static XVisualInfo *glaze_visual_info(Display *dpy, VisualID id) {
	XVisualInfo tmpl;
	int n = 0;
	tmpl.visualid = id;
	return XGetVisualInfo(dpy, VisualIDMask, &tmpl, &n);
}

static GLXFBConfig glaze_fbconfig_at(GLXFBConfig *configs, int i) {
	return configs[i];
}
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/glaze/internal/backend/gl"
)

// xlibDriver is the Driver backed by libGL. GLX needs an Xlib display,
// so it keeps its own connection next to the xgb one.
type xlibDriver struct {
	dpy      *C.Display
	screen   C.int
	configs  *C.GLXFBConfig
	nconfig  int
	contexts handleTable[C.GLXContext]
	gl       gl.GL
}

var _ Driver = (*xlibDriver)(nil)

// OpenDriver connects to display through Xlib. An empty name uses
// $DISPLAY.
func OpenDriver(display string) (Driver, error) {
	var name *C.char
	if display != "" {
		name = C.CString(display)
		defer C.free(unsafe.Pointer(name))
	}
	dpy := C.XOpenDisplay(name)
	if dpy == nil {
		return nil, fmt.Errorf("glx: cannot open display %q", display)
	}
	C.glaze_install_error_handler()
	return &xlibDriver{dpy: dpy, screen: C.XDefaultScreen(dpy)}, nil
}

func (d *xlibDriver) takeError(op string) error {
	if code := C.glaze_take_error(d.dpy); code != 0 {
		return fmt.Errorf("glx: %s: X error %d", op, int(code))
	}
	return nil
}

func (d *xlibDriver) QueryExtension() bool {
	var errBase, evBase C.int
	return C.glXQueryExtension(d.dpy, &errBase, &evBase) != 0
}

func (d *xlibDriver) ExtensionsString() string {
	s := C.glXQueryExtensionsString(d.dpy, d.screen)
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

func (d *xlibDriver) VisualConfig(visual xproto.Visualid, attr int) (int, error) {
	vi := C.glaze_visual_info(d.dpy, C.VisualID(visual))
	if vi == nil {
		return 0, fmt.Errorf("glx: no visual info for %#x", visual)
	}
	defer C.XFree(unsafe.Pointer(vi))

	var v C.int
	if rc := C.glXGetConfig(d.dpy, vi, C.int(attr), &v); rc != 0 {
		return 0, fmt.Errorf("glx: glXGetConfig(%#x) failed with %d", attr, int(rc))
	}
	return int(v), nil
}

func (d *xlibDriver) CreateContext(visual xproto.Visualid) (Context, error) {
	vi := C.glaze_visual_info(d.dpy, C.VisualID(visual))
	if vi == nil {
		return 0, fmt.Errorf("glx: no visual info for %#x", visual)
	}
	defer C.XFree(unsafe.Pointer(vi))

	ctx := C.glXCreateContext(d.dpy, vi, nil, C.True)
	if err := d.takeError("glXCreateContext"); err != nil {
		if ctx != nil {
			C.glXDestroyContext(d.dpy, ctx)
		}
		return 0, err
	}
	if ctx == nil {
		return 0, errors.New("glx: glXCreateContext returned NULL")
	}
	return Context(d.contexts.add(ctx)), nil
}

func (d *xlibDriver) MakeCurrent(drawable xproto.Window, ctx Context) error {
	if ctx == 0 {
		C.glXMakeCurrent(d.dpy, 0, nil)
		return d.takeError("glXMakeCurrent")
	}
	c, ok := d.contexts.get(int(ctx))
	if !ok {
		return fmt.Errorf("glx: invalid context %d", ctx)
	}
	if C.glXMakeCurrent(d.dpy, C.GLXDrawable(drawable), c) == 0 {
		return errors.New("glx: glXMakeCurrent failed")
	}
	if err := d.takeError("glXMakeCurrent"); err != nil {
		return err
	}
	if d.gl == nil {
		if err := gl.InitNative(); err != nil {
			return fmt.Errorf("glx: loading GL entry points: %w", err)
		}
		d.gl = gl.Native()
	}
	return nil
}

func (d *xlibDriver) DestroyContext(ctx Context) {
	if c, ok := d.contexts.get(int(ctx)); ok {
		C.glXDestroyContext(d.dpy, c)
		d.contexts.drop(int(ctx))
	}
}

// FBConfigs returns 1-based indices into the config list, which is
// fetched once and freed by Close.
func (d *xlibDriver) FBConfigs() []FBConfig {
	if d.configs == nil {
		var n C.int
		d.configs = C.glXGetFBConfigs(d.dpy, d.screen, &n)
		d.nconfig = int(n)
		if d.configs == nil {
			d.nconfig = 0
		}
	}
	out := make([]FBConfig, d.nconfig)
	for i := range out {
		out[i] = FBConfig(i + 1)
	}
	return out
}

func (d *xlibDriver) fbconfig(cfg FBConfig) (C.GLXFBConfig, bool) {
	i := int(cfg) - 1
	if d.configs == nil || i < 0 || i >= d.nconfig {
		return nil, false
	}
	return C.glaze_fbconfig_at(d.configs, C.int(i)), true
}

func (d *xlibDriver) FBConfigAttrib(cfg FBConfig, attr int) (int, error) {
	c, ok := d.fbconfig(cfg)
	if !ok {
		return 0, fmt.Errorf("glx: invalid fbconfig %d", cfg)
	}
	var v C.int
	if rc := C.glXGetFBConfigAttrib(d.dpy, c, C.int(attr), &v); rc != 0 {
		return 0, fmt.Errorf("glx: glXGetFBConfigAttrib(%#x) failed with %d", attr, int(rc))
	}
	return int(v), nil
}

func (d *xlibDriver) VisualDepth(cfg FBConfig) (int, bool) {
	c, ok := d.fbconfig(cfg)
	if !ok {
		return 0, false
	}
	vi := C.glXGetVisualFromFBConfig(d.dpy, c)
	if vi == nil {
		return 0, false
	}
	defer C.XFree(unsafe.Pointer(vi))
	return int(vi.depth), true
}

func (d *xlibDriver) CreatePixmap(cfg FBConfig, pixmap xproto.Pixmap, attrs []int) (Pixmap, error) {
	c, ok := d.fbconfig(cfg)
	if !ok {
		return 0, fmt.Errorf("glx: invalid fbconfig %d", cfg)
	}
	list := make([]C.int, 0, len(attrs)+1)
	for _, a := range attrs {
		list = append(list, C.int(a))
	}
	list = append(list, 0)

	p := C.glXCreatePixmap(d.dpy, c, C.Pixmap(pixmap), &list[0])
	if err := d.takeError("glXCreatePixmap"); err != nil {
		if p != 0 {
			C.glXDestroyPixmap(d.dpy, p)
		}
		return 0, err
	}
	return Pixmap(p), nil
}

func (d *xlibDriver) DestroyPixmap(p Pixmap) {
	C.glXDestroyPixmap(d.dpy, C.GLXPixmap(p))
}

func (d *xlibDriver) TexImageFuncs() (TexImageFuncs, error) {
	if C.glaze_load_tex_image() == 0 {
		return TexImageFuncs{}, errors.New("glx: glXBindTexImageEXT/glXReleaseTexImageEXT not found")
	}
	return TexImageFuncs{
		Bind: func(p Pixmap, buffer int) {
			C.glaze_bind_tex_image(d.dpy, C.GLXDrawable(p), C.int(buffer))
		},
		Release: func(p Pixmap, buffer int) {
			C.glaze_release_tex_image(d.dpy, C.GLXDrawable(p), C.int(buffer))
		},
	}, nil
}

func (d *xlibDriver) SwapBuffers(drawable xproto.Window) {
	C.glXSwapBuffers(d.dpy, C.GLXDrawable(drawable))
}

func (d *xlibDriver) QueryDrawable(drawable xproto.Window, attr int) (uint32, error) {
	var v C.uint
	C.glXQueryDrawable(d.dpy, C.GLXDrawable(drawable), C.int(attr), &v)
	if err := d.takeError("glXQueryDrawable"); err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func (d *xlibDriver) GL() gl.GL { return d.gl }

func (d *xlibDriver) Close() {
	if d.dpy == nil {
		return
	}
	if d.configs != nil {
		C.XFree(unsafe.Pointer(d.configs))
		d.configs = nil
		d.nconfig = 0
	}
	C.XCloseDisplay(d.dpy)
	d.dpy = nil
}
