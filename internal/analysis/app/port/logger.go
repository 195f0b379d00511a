package port

import "Vic2Economy/modules/kit/logx"

type Logger = logx.Logger
