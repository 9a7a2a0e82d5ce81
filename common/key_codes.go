package common

// Key codes delivered to window key callbacks. Printable keys use their ASCII value, the rest
// match GLFW's key enumeration.
const (
	KeySpace     = 32  // Spacebar (ASCII)
	KeyC         = 67  // C key (ASCII)
	KeyP         = 80  // P key (ASCII)
	KeyEsc       = 256 // Escape key (GLFW)
	KeyBackspace = 259 // Backspace key (GLFW)
)
