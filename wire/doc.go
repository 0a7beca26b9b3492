/*
Package wire defines the payloads exchanged with the waPC host for map
operations.

Requests and responses are protobuf wire format, encoded field by field with
google.golang.org/protobuf/encoding/protowire so any protobuf runtime on the
host can decode them with this schema:

	message Request {
	  uint32 handle = 1;
	  string key    = 2;
	  uint64 value  = 3;
	}

	message Response {
	  int32  code    = 1;
	  string status  = 2;
	  uint32 handle  = 3;
	  uint64 value   = 4;
	  bool   found   = 5;
	  bool   removed = 6;
	  uint64 len     = 7;
	}

Response.found is the explicit lookup result: a get that misses answers
code 200 with found unset, never a zero value standing in for "absent".
Unknown fields are skipped on decode.
*/
package wire
