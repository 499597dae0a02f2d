package runtime

// workerFileName is written under the module store dir at manager startup.
const workerFileName = "converter_worker.mjs"

// workerScript is the JavaScript side of the converter protocol: one JSON
// request on stdin ({code, input}), one JSON response on stdout. Compile
// failures are reported by the worker itself; timeouts are enforced from the
// Go side by killing the process.
const workerScript = `import { stdin, stdout, exit } from "node:process";

function respond(payload) {
  stdout.write(JSON.stringify(payload));
}

let raw = "";
for await (const chunk of stdin) {
  raw += chunk;
}

let request;
try {
  request = JSON.parse(raw);
} catch (err) {
  respond({ ok: false, phase: "compile", error: "invalid request payload: " + String(err?.message ?? err) });
  exit(0);
}

let handle;
try {
  const factory = new Function(request.code + "\n;return handle;");
  handle = factory();
  if (typeof handle !== "function") {
    throw new Error("code must declare a function named handle");
  }
} catch (err) {
  respond({ ok: false, phase: "compile", error: String(err?.message ?? err) });
  exit(0);
}

try {
  const result = await handle(request.input);
  respond({ ok: true, result: result === undefined ? null : result });
} catch (err) {
  respond({ ok: false, phase: "runtime", error: String(err?.message ?? err) });
}
exit(0);
`

// workerRequest is the JSON payload handed to the worker on stdin.
type workerRequest struct {
	Code  string `json:"code"`
	Input any    `json:"input"`
}

// workerResponse is the single JSON document the worker writes to stdout.
type workerResponse struct {
	OK     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
	Phase  string `json:"phase,omitempty"`
	Error  string `json:"error,omitempty"`
}
