package catena

// Version is the library and command line version.
const Version = "0.1.0"
